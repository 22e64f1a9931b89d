// Package pipeline drives one analysis run end to end: frames are read from
// a raw rgb24 stream, analyzed by a Session, and the result is published to
// MQTT and persisted when those outputs are configured.
package pipeline

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/swimform/swimform-go/internal/analysis"
	"github.com/swimform/swimform-go/internal/analysis/scene"
	"github.com/swimform/swimform-go/internal/conf"
	"github.com/swimform/swimform-go/internal/config"
	"github.com/swimform/swimform-go/internal/errors"
	"github.com/swimform/swimform-go/internal/framesource"
	"github.com/swimform/swimform-go/internal/logger"
	"github.com/swimform/swimform-go/internal/mqtt"
	"github.com/swimform/swimform-go/internal/pose"
)

// Options describes one run.
type Options struct {
	// Input is the raw rgb24 stream.
	Input io.Reader
	// Source labels the stored session, usually the input path.
	Source string
	// Replay replaces the configured pose provider with recorded landmarks.
	Replay io.Reader
	// AnnotatedOutput receives one rgb24 frame per input frame. Accepted
	// frames carry the overlay; rejected frames are passed through.
	AnnotatedOutput io.Writer
	// OnFrame is called after every processed frame.
	OnFrame func(analysis.FrameResult)
}

// Result is the outcome of a run.
type Result struct {
	Report    analysis.Report `json:"report"`
	Stats     analysis.Stats  `json:"stats"`
	Stored    bool            `json:"stored"`
	Published bool            `json:"published"`
	Dropped   int64           `json:"dropped_events"`
}

// Run analyzes opts.Input with the application settings. Output failures
// after analysis are logged and reported in Result; only input, provider
// setup and cancellation abort the run.
func Run(ctx context.Context, app *config.Context, opts Options) (*Result, error) {
	if app == nil || app.Settings == nil {
		return nil, errors.Newf("application context is not initialized").
			Component("pipeline").
			Category(errors.CategoryState).
			Build()
	}
	if opts.Input == nil {
		return nil, errors.Newf("input stream is required").
			Component("pipeline").
			Category(errors.CategoryValidation).
			Build()
	}
	settings := app.Settings
	log := GetLogger()

	video := settings.Analysis.Video
	reader, err := framesource.NewReader(opts.Input, framesource.Config{
		Width:        video.Width,
		Height:       video.Height,
		FPS:          video.FPS,
		BufferFrames: video.BufferFrames,
	})
	if err != nil {
		return nil, err
	}

	provider, closeProvider, err := newProvider(settings, opts.Replay)
	if err != nil {
		return nil, err
	}
	defer closeProvider()

	m, err := app.Metrics()
	if err != nil {
		return nil, errors.New(err).
			Component("pipeline").
			Category(errors.CategoryConfiguration).
			Context("operation", "init-metrics").
			Build()
	}

	cfg := analysis.ConfigFromSettings(settings)
	if opts.AnnotatedOutput != nil {
		cfg.Annotate = true
	}
	sessionOpts := []analysis.Option{analysis.WithMetrics(m.Swim)}

	var publisher *mqtt.Publisher
	if settings.MQTT.Enabled {
		client, pub := connectPublisher(ctx, settings, m.MQTT)
		if pub != nil {
			publisher = pub
			publisher.Start(ctx)
			defer client.Disconnect()
			defer publisher.Close()
			sessionOpts = append(sessionOpts, analysis.WithEventSink(publisher))
		}
	}

	session := analysis.NewSession(cfg, provider, sessionOpts...)
	if err := forceContext(session, settings.Analysis); err != nil {
		return nil, err
	}

	log.Info("analysis started",
		logger.String("session_id", session.ID()),
		logger.String("source", opts.Source),
		logger.Int("width", video.Width),
		logger.Int("height", video.Height),
		logger.Float64("fps", video.FPS))
	start := time.Now()

	for {
		frame, err := reader.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		res, err := session.ProcessFrame(ctx, frame)
		if err != nil {
			return nil, err
		}
		if opts.AnnotatedOutput != nil {
			if err := writeFrame(opts.AnnotatedOutput, frame, res.Annotated); err != nil {
				return nil, err
			}
		}
		if opts.OnFrame != nil {
			opts.OnFrame(res)
		}
	}

	report := session.Finish()
	result := &Result{
		Report: report,
		Stats:  session.Stats(),
	}
	log.Info("analysis finished",
		logger.String("session_id", report.ID),
		logger.Int("frames", result.Stats.Frames),
		logger.Int("accepted", result.Stats.Accepted),
		logger.Int("strokes", report.Summary.StrokeCount),
		logger.Float64("avg_score", report.Summary.AvgScore),
		logger.Duration("elapsed", time.Since(start)))

	if publisher != nil {
		publisher.Close()
		result.Dropped = publisher.Dropped()
		if err := publisher.PublishSummary(ctx, opts.Source, &report); err != nil {
			log.Warn("failed to publish session summary",
				logger.String("session_id", report.ID),
				logger.Error(err))
		} else {
			result.Published = true
		}
	}

	result.Stored = persist(ctx, app, opts.Source, &report)
	return result, nil
}

// newProvider selects the pose provider: an explicit replay stream, the
// configured replay file, or the pose service.
func newProvider(settings *conf.Settings, replay io.Reader) (pose.Provider, func(), error) {
	noop := func() {}
	if replay != nil {
		return pose.NewReplayProvider(replay), noop, nil
	}
	if path := settings.Pose.ReplayFile; path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, noop, errors.New(err).
				Component("pipeline").
				Category(errors.CategoryFileIO).
				Context("replay_file", path).
				Build()
		}
		return pose.NewReplayProvider(f), func() { _ = f.Close() }, nil
	}
	provider, err := pose.NewHTTPProvider(pose.HTTPConfig{
		Endpoint: settings.Pose.Endpoint,
		Timeout:  settings.Pose.Timeout,
		APIKey:   settings.Pose.APIKey,
	})
	if err != nil {
		return nil, noop, err
	}
	return provider, noop, nil
}

func forceContext(session *analysis.Session, a conf.AnalysisSettings) error {
	if a.View == "" && a.Water == "" {
		return nil
	}
	view, okView := scene.ParseCameraView(a.View)
	water, okWater := scene.ParseWaterPosition(a.Water)
	if !okView || !okWater {
		return errors.Newf("invalid forced context %q/%q", a.View, a.Water).
			Component("pipeline").
			Category(errors.CategoryValidation).
			Build()
	}
	return session.ForceContext(view, water)
}

func writeFrame(w io.Writer, original, annotated *framesource.Frame) error {
	frame := original
	if annotated.HasPixels() {
		frame = annotated
	}
	if !frame.HasPixels() {
		return nil
	}
	if _, err := w.Write(frame.Data); err != nil {
		return errors.New(err).
			Component("pipeline").
			Category(errors.CategoryFileIO).
			Context("operation", "write-annotated").
			Context("seq", original.Seq).
			Build()
	}
	return nil
}

// persist stores the report when a database is configured. Failures are
// logged; the analysis result is still returned to the caller.
func persist(ctx context.Context, app *config.Context, source string, report *analysis.Report) bool {
	store, err := app.OpenStore()
	if err != nil {
		GetLogger().Error("failed to open session store", logger.Error(err))
		return false
	}
	if store == nil {
		return false
	}
	defer func() {
		if err := store.Close(); err != nil {
			GetLogger().Warn("failed to close session store", logger.Error(err))
		}
	}()

	if _, err := store.SaveSession(ctx, source, report); err != nil {
		GetLogger().Error("failed to save session",
			logger.String("session_id", report.ID),
			logger.Error(err))
		return false
	}
	return true
}
