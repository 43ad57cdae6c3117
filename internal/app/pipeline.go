package app

import (
	"fmt"

	"github.com/RyanBlaney/prosody-analyzer/configs"
	"github.com/RyanBlaney/prosody-analyzer/internal/logging"
	"github.com/RyanBlaney/prosody-analyzer/pkg/audio/transcode"
	"github.com/RyanBlaney/prosody-analyzer/pkg/prosody"
)

// BuildPipeline assembles the analysis pipeline described by config. A nil
// transcoder selects ffmpeg as configured.
func BuildPipeline(config *configs.Config, t transcode.Transcoder, logger logging.Logger) (*prosody.Pipeline, error) {
	logger = logging.OrDefault(logger)

	if t == nil {
		t = transcode.NewFFmpeg(config.Transcoder.Path, config.Transcoder.Timeout, logger)
	}

	model, err := config.Model()
	if err != nil {
		return nil, fmt.Errorf("invalid scoring configuration: %w", err)
	}

	extractor, err := prosody.NewExtractor(prosody.DefaultCollaborators(logger), config.ExtractorConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("invalid analysis configuration: %w", err)
	}

	preprocessor := prosody.NewPreprocessor(t, config.PreprocessOptions(), logger)

	return prosody.NewPipeline(preprocessor, extractor, model, logger)
}
