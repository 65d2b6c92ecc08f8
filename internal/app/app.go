package app

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Brownie44l1/skinsense-api/internal/config"
	"github.com/Brownie44l1/skinsense-api/internal/metrics"
	"github.com/Brownie44l1/skinsense-api/internal/model"
	"github.com/Brownie44l1/skinsense-api/internal/prediction"
	"github.com/Brownie44l1/skinsense-api/internal/preprocess"
	"github.com/Brownie44l1/skinsense-api/internal/recommend"
)

// App holds the long-lived pieces shared by the server and the CLI.
type App struct {
	Service  *prediction.Service
	Registry *prometheus.Registry

	closeRuntime func()
}

// LoadRuntime opens the classifier. It is a variable so tests can replace it.
var LoadRuntime = func(cfg config.ModelConfig, logger *zap.Logger) (prediction.Classifier, func(), error) {
	rt, err := model.Load(model.Options{
		Dir:            cfg.Dir,
		GraphFile:      cfg.GraphFile,
		MetadataFile:   cfg.MetadataFile,
		SharedLibrary:  cfg.SharedLibrary,
		IntraOpThreads: cfg.IntraOpThreads,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return rt, rt.Close, nil
}

// New builds the prediction pipeline. A classifier that fails to load does
// not stop the process; the service reports itself unavailable instead. Bad
// configuration, such as an unknown recommendation key, is returned as an error.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	catalog, err := recommend.New(cfg.Recommendations)
	if err != nil {
		return nil, fmt.Errorf("build recommendation catalog: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	opts := []prediction.Option{
		prediction.WithMetrics(m),
		prediction.WithInferTimeout(cfg.Model.InferTimeout),
		prediction.WithDecoder(preprocess.NewDecoder(cfg.Image.MaxPixels)),
	}

	a := &App{Registry: reg}

	classifier, closeFn, err := LoadRuntime(cfg.Model, logger)
	if err != nil {
		var loadErr *model.LoadError
		if errors.As(err, &loadErr) {
			logger.Error("model failed to load, predictions are unavailable",
				zap.String("artifact", loadErr.Artifact),
				zap.String("path", loadErr.Path),
				zap.Error(loadErr.Err),
			)
		} else {
			logger.Error("model failed to load, predictions are unavailable", zap.Error(err))
		}
		opts = append(opts, prediction.WithLoadError(err))
		m.SetModelLoaded(false)
	} else {
		a.closeRuntime = closeFn
		m.SetModelLoaded(true)
	}

	a.Service = prediction.NewService(classifier, catalog, logger, opts...)
	return a, nil
}

// Close releases the classifier runtime.
func (a *App) Close() {
	if a.closeRuntime != nil {
		a.closeRuntime()
		a.closeRuntime = nil
	}
}
