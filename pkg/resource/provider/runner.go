package provider

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/assetflow/assetflow/internal/logger"
	"github.com/assetflow/assetflow/pkg/resource"
	"github.com/assetflow/assetflow/pkg/resource/backend"
	"github.com/assetflow/assetflow/pkg/resource/convert"
)

// runnerState is the lifecycle of one asynchronous load.
type runnerState int32

const (
	statePending runnerState = iota
	stateRunning
	stateCompleted
	stateCancelled
	stateFailed
)

func (s runnerState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateRunning:
		return "running"
	case stateCompleted:
		return "completed"
	case stateCancelled:
		return "cancelled"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// loadRunner drives one fetch-and-convert operation for one (path, type)
// pair. At most one runner exists per path while a load is outstanding;
// concurrent requests for the same path attach to the existing runner.
//
// The runner owns its own context, detached from any single caller: the
// fetch is shared work, cancelled only through Unload, never by one waiter
// giving up.
type loadRunner struct {
	path string
	typ  resource.Type
	conv convert.Converter

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	state  runnerState
	result *resource.Resource

	done chan struct{}
}

func newLoadRunner(path string, typ resource.Type, conv convert.Converter) *loadRunner {
	ctx, cancel := context.WithCancel(context.Background())
	return &loadRunner{
		path:   path,
		typ:    typ,
		conv:   conv,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// State returns the current runner state.
func (r *loadRunner) State() runnerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *loadRunner) setState(s runnerState) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// start launches the fetch. onDone runs after the result is recorded and
// before waiters are released, so registry updates always precede the path
// becoming observable as Loaded or Unloaded.
func (r *loadRunner) start(b backend.Backend, onDone func(*loadRunner)) {
	go func() {
		r.setState(stateRunning)

		res := r.execute(b)

		r.mu.Lock()
		r.result = res
		r.mu.Unlock()

		onDone(r)
		close(r.done)
	}()
}

// execute performs the fetch-and-convert pipeline and returns the resulting
// resource, valid or invalid. Backend and converter failures never escape as
// errors: waiters receive an invalid resource and check validity.
func (r *loadRunner) execute(b backend.Backend) *resource.Resource {
	start := time.Now()

	// Pseudo-resources require no bytes and skip the backend entirely.
	if syn, ok := r.conv.(convert.Synthesizer); ok {
		payload, err := syn.Synthesize(r.path)
		if err != nil {
			r.setState(stateFailed)
			logger.Warn("pseudo-resource synthesis failed",
				logger.Path(r.path), logger.Type(r.typ.String()), logger.Err(err))
			return resource.Invalid(r.path, r.typ)
		}
		r.setState(stateCompleted)
		return resource.Synthesized(r.path, r.typ, payload)
	}

	fetched, err := b.Fetch(r.ctx, r.path, r.conv)
	if err != nil {
		if r.ctx.Err() != nil || errors.Is(err, context.Canceled) {
			r.setState(stateCancelled)
			logger.Debug("load cancelled",
				logger.Path(r.path), logger.Type(r.typ.String()))
			return resource.Invalid(r.path, r.typ)
		}
		r.setState(stateFailed)
		logger.Warn("load failed",
			logger.Path(r.path),
			logger.Type(r.typ.String()),
			logger.Backend(b.Name()),
			logger.Err(err),
			logger.DurationMs(logger.Duration(start)))
		return resource.Invalid(r.path, r.typ)
	}

	payload, err := r.convertResult(fetched)
	if err != nil {
		r.setState(stateFailed)
		logger.Warn("conversion failed",
			logger.Path(r.path), logger.Type(r.typ.String()), logger.Err(err))
		return resource.Invalid(r.path, r.typ)
	}

	r.setState(stateCompleted)
	logger.Debug("load completed",
		logger.Path(r.path),
		logger.Type(r.typ.String()),
		logger.CacheHit(fetched.FromCache),
		logger.DurationMs(logger.Duration(start)))
	return resource.Completed(r.path, r.typ, payload)
}

// convertResult turns the fetch result into the typed payload. A native
// object from a type-specialized transport skips byte conversion.
func (r *loadRunner) convertResult(fetched *backend.Result) (any, error) {
	if fetched.Native != nil {
		if nc, ok := r.conv.(convert.NativeConverter); ok {
			return nc.ConvertNative(r.path, fetched.Native)
		}
		return fetched.Native, nil
	}
	return r.conv.Convert(r.path, fetched.Data)
}

// wait blocks until the runner finishes or the caller's context is done.
// Finished runners return their resource, valid or not, with a nil error.
func (r *loadRunner) wait(ctx context.Context) (*resource.Resource, error) {
	select {
	case <-r.done:
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
