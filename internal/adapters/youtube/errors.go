package youtube

import (
	"context"
	"errors"
	"net"

	"github.com/kkdai/youtube/v2"

	"ytdlapi/internal/core/domain"
)

func classify(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domain.NewExtractionError(domain.FailureUnknown, err)
	case errors.Is(err, youtube.ErrVideoPrivate),
		errors.Is(err, youtube.ErrLoginRequired),
		errors.Is(err, youtube.ErrNotPlayableInEmbed):
		return domain.NewExtractionError(domain.FailureUnavailable, err)
	case errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength):
		return domain.NewExtractionError(domain.FailureUnsupported, err)
	}

	var playability youtube.ErrPlayabiltyStatus
	if errors.As(err, &playability) {
		return domain.NewExtractionError(domain.FailureUnavailable, err)
	}

	var status youtube.ErrUnexpectedStatusCode
	if errors.As(err, &status) {
		return domain.NewExtractionError(domain.FailureNetwork, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.NewExtractionError(domain.FailureNetwork, err)
	}

	return domain.NewExtractionError(domain.FailureUnknown, err)
}
