package audit

import (
	"context"
	"fmt"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// VerifyReport is the outcome of walking the chain.
type VerifyReport struct {
	Checked        int    `json:"checked"`
	OK             bool   `json:"ok"`
	BrokenSequence uint64 `json:"broken_sequence,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

const verifyBatchSize = 500

// Verify walks every entry in sequence order and reports the first entry
// whose sequence, link, hash or signature does not check out.
func (l *Log) Verify(ctx context.Context) (*VerifyReport, error) {
	report := &VerifyReport{OK: true}
	var (
		prevHash string
		expect   uint64 = 1
	)

	var after uint64
	for {
		var batch []models.AuditEntry
		err := l.db.WithContext(ctx).
			Where("sequence > ?", after).
			Order("sequence ASC").
			Limit(verifyBatchSize).
			Find(&batch).Error
		if err != nil {
			return nil, fmt.Errorf("audit: verify: %w", err)
		}
		for i := range batch {
			e := &batch[i]
			report.Checked++
			if reason := l.checkEntry(e, expect, prevHash); reason != "" {
				report.OK = false
				report.BrokenSequence = e.Sequence
				report.Reason = reason
				return report, nil
			}
			prevHash = e.Hash
			expect = e.Sequence + 1
			after = e.Sequence
		}
		if len(batch) < verifyBatchSize {
			break
		}
	}
	return report, nil
}

func (l *Log) checkEntry(e *models.AuditEntry, expect uint64, prevHash string) string {
	if e.Sequence != expect {
		return fmt.Sprintf("expected sequence %d, found %d", expect, e.Sequence)
	}
	if e.PrevHash != prevHash {
		return "previous hash does not match"
	}
	if entryHash(e) != e.Hash {
		return "entry hash does not match contents"
	}
	if l.signer == nil {
		return ""
	}
	if e.Signature == "" {
		return "signature is missing"
	}
	if !l.signer.Verify([]byte(e.Hash), e.Signature) {
		return "signature is invalid"
	}
	return ""
}

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// StartVerifier runs Verify on schedule until ctx is cancelled. Failures
// are logged, not returned.
func StartVerifier(ctx context.Context, l *Log, schedule string) error {
	if _, err := cronParser.Parse(schedule); err != nil {
		return fmt.Errorf("audit: parse verify schedule %q: %w", schedule, err)
	}
	c := cron.New(cron.WithParser(cronParser))
	if _, err := c.AddFunc(schedule, func() { runVerify(ctx, l) }); err != nil {
		return fmt.Errorf("audit: schedule verifier: %w", err)
	}
	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	log.Info().Str("schedule", schedule).Msg("audit_verifier_started")
	return nil
}

func runVerify(ctx context.Context, l *Log) {
	report, err := l.Verify(ctx)
	if err != nil {
		log.Error().Err(err).Msg("audit_verify_failed")
		return
	}
	if !report.OK {
		log.Error().
			Uint64("sequence", report.BrokenSequence).
			Str("reason", report.Reason).
			Int("checked", report.Checked).
			Msg("audit_chain_broken")
		return
	}
	log.Info().Int("checked", report.Checked).Msg("audit_chain_verified")
}
