package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/slide-digest/internal/chat"
	"github.com/fpang/slide-digest/internal/filehandler"
	"github.com/fpang/slide-digest/internal/metrics"
)

// MockDescription is what the describe step records in mock mode.
func MockDescription(file string) string {
	return "Mock response for " + file
}

// describe produces exactly one Result for img and never returns an error:
// read and provider failures are folded into the Result.
func (p *Pipeline) describe(ctx context.Context, img filehandler.SlideImage) chat.Result {
	if p.opts.Mock {
		result := chat.Success(MockDescription(img.Name))
		logSlide(img, result, 0)
		return result
	}

	data, err := filehandler.LoadImageData(img)
	if err != nil {
		result := chat.LocalFailure(err)
		logSlide(img, result, 0)
		return result
	}
	data, err = filehandler.PrepareImage(data, img.MIMEType, p.opts.MaxImageDimension)
	if err != nil {
		result := chat.LocalFailure(err)
		logSlide(img, result, 0)
		return result
	}

	start := time.Now()
	text, err := p.provider.DescribeImage(ctx, p.opts.DescribeModel, chat.ImageInput{
		Name:     img.Name,
		MIMEType: img.MIMEType,
		Data:     data,
	}, p.profile.DescribeInstruction)
	duration := time.Since(start)

	var result chat.Result
	if err != nil {
		result = chat.Failed(err)
	} else {
		result = chat.Success(text)
	}
	metrics.ProviderCall("describe", p.provider.Name(), p.opts.DescribeModel, outcome(result), duration)
	logSlide(img, result, duration)
	return result
}

func logSlide(img filehandler.SlideImage, result chat.Result, duration time.Duration) {
	if !result.OK() {
		log.Warn().
			Str("file", img.Name).
			Str("kind", result.Failure.Kind.String()).
			Str("error", result.Failure.Message).
			Dur("duration", duration).
			Msg("Slide description failed")
		return
	}
	log.Info().
		Str("file", img.Name).
		Int("length", len(result.Text)).
		Dur("duration", duration).
		Msg("Processed slide")
}

func outcome(r chat.Result) string {
	if r.OK() {
		return "ok"
	}
	return r.Failure.Kind.String()
}
