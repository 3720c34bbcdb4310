package predict

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ArtifactLoader loads a model artifact at most once per process. The
// loaded artifact is shared read-only by every predictor built from it.
type ArtifactLoader struct {
	path string
	load func() (*Artifact, error)
}

// NewArtifactLoader returns a loader for path. Nothing is read until Load.
func NewArtifactLoader(path string) *ArtifactLoader {
	l := &ArtifactLoader{path: path}
	l.load = sync.OnceValues(l.read)
	return l
}

// Load returns the artifact. A missing file yields (nil, nil) so callers
// fall back to the rule-based predictor. Later calls return the first result.
func (l *ArtifactLoader) Load() (*Artifact, error) {
	return l.load()
}

func (l *ArtifactLoader) read() (*Artifact, error) {
	log := zap.L().With(zap.String("component", "predict.loader"), zap.String("path", l.path))
	if l.path == "" {
		log.Info("no model artifact configured, using rule-based predictor")
		return nil, nil
	}

	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info("model artifact not found, using rule-based predictor")
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "predict: open artifact %s", l.path)
	}
	defer f.Close() //nolint:errcheck

	a, err := DecodeArtifact(f)
	if err != nil {
		return nil, eris.Wrapf(err, "predict: load artifact %s", l.path)
	}
	log.Info("model artifact loaded", zap.Int("trees", len(a.Trees)))
	return a, nil
}

// NewPredictorFromLoader builds a predictor from the loader's artifact. A load
// error is logged and the predictor falls back to the rule.
func NewPredictorFromLoader(l *ArtifactLoader) *Predictor {
	a, err := l.Load()
	if err != nil {
		zap.L().Warn("predict: artifact unusable, using rule-based predictor", zap.Error(err))
		return NewPredictor(nil)
	}
	return NewPredictor(a)
}
