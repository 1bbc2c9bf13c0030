package sweeper

import (
	"context"
	"time"

	"github.com/NordCoder/FlightAlert/internal/obs/retry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

type Sweeper interface {
	Run(ctx context.Context, now time.Time) (Report, error)
}

type RunnerConfig struct {
	Tick       time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

type Runner struct {
	log    *zap.Logger
	sw     Sweeper
	cfg    RunnerConfig
	policy retry.Policy
	now    func() time.Time

	mDue       prometheus.Counter
	mSent      prometheus.Counter
	mFailed    prometheus.Counter
	mRuleErr   prometheus.Counter
	mSkipped   prometheus.Counter
	mExhausted prometheus.Counter
	mTickDur   prometheus.Histogram
}

func NewRunner(log *zap.Logger, sw Sweeper, cfg RunnerConfig, reg prometheus.Registerer) *Runner {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Minute
	}
	f := promauto.With(reg)
	return &Runner{
		log:    log,
		sw:     sw,
		cfg:    cfg,
		policy: retry.SweepPolicy(cfg.MaxRetries, cfg.RetryDelay, log),
		now:    func() time.Time { return time.Now().UTC() },
		mDue: f.NewCounter(prometheus.CounterOpts{
			Name: "sweep_rules_due_total", Help: "Rules found due for evaluation.",
		}),
		mSent: f.NewCounter(prometheus.CounterOpts{
			Name: "sweep_alerts_sent_total", Help: "Alert emails accepted by the provider.",
		}),
		mFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "sweep_alerts_failed_total", Help: "Alert emails the provider rejected or that failed to send.",
		}),
		mRuleErr: f.NewCounter(prometheus.CounterOpts{
			Name: "sweep_rule_errors_total", Help: "Rules whose outcome could not be recorded.",
		}),
		mSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "sweep_skipped_total", Help: "Ticks skipped because another sweeper held the lock.",
		}),
		mExhausted: f.NewCounter(prometheus.CounterOpts{
			Name: "sweep_retries_exhausted_total", Help: "Ticks dropped after all retries failed.",
		}),
		mTickDur: f.NewHistogram(prometheus.HistogramOpts{
			Name: "sweep_tick_duration_seconds", Help: "Sweep tick duration including retries.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
		}),
	}
}

// tick runs one sweep under the retry policy. A tick that still fails is
// dropped; the next tick starts fresh.
func (r *Runner) tick(ctx context.Context) {
	start := time.Now()
	defer func() { r.mTickDur.Observe(time.Since(start).Seconds()) }()

	var rep Report
	err := retry.Do(ctx, func() error {
		var err error
		rep, err = r.sw.Run(ctx, r.now())
		return err
	}, r.policy)
	if err != nil {
		if ctx.Err() == nil {
			r.mExhausted.Inc()
		}
		return
	}

	if rep.Skipped {
		r.mSkipped.Inc()
		return
	}
	r.mDue.Add(float64(rep.Due))
	r.mSent.Add(float64(rep.Sent))
	r.mFailed.Add(float64(rep.Failed))
	r.mRuleErr.Add(float64(rep.Errors))
	if rep.Due > 0 {
		r.log.Info("sweep done",
			zap.Int("candidates", rep.Candidates),
			zap.Int("due", rep.Due),
			zap.Int("matched", rep.Matched),
			zap.Int("sent", rep.Sent),
			zap.Int("failed", rep.Failed),
			zap.Int("errors", rep.Errors))
	}
}

func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Tick)
	defer ticker.Stop()

	r.log.Info("sweeper started", zap.Duration("tick", r.cfg.Tick))
	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}
