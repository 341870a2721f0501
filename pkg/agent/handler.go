package agent

import (
	"github.com/pkwatch/pkwatch/pkg/eula"
	"github.com/pkwatch/pkwatch/pkg/logging"
	"github.com/pkwatch/pkwatch/pkg/transaction"
	"github.com/pkwatch/pkwatch/pkg/updater"
	"github.com/sirupsen/logrus"
)

// logHandler is the daemon's consumer surface: updater outputs land in the
// log. Interactive prompts cannot be answered here, so license agreements are
// declined and unverified repository keys are refused.
type logHandler struct {
	log   logging.Logger
	agent *Agent
}

var _ updater.Handler = (*logHandler)(nil)

func (h *logHandler) OnUpdatesChanged(a updater.Aggregate) {
	h.log.WithFields(logrus.Fields{
		"count":     a.Count,
		"important": a.ImportantCount,
		"security":  a.SecurityCount,
	}).Info(a.Message)
}

func (h *logHandler) OnProgressChanged(p updater.Progress) {
	h.log.WithFields(logrus.Fields{
		"activity":   p.Activity.String(),
		"percentage": p.Percentage,
		"status":     p.StatusMessage,
	}).Debug("progress")
}

func (h *logHandler) OnCheckFinished(s updater.CheckState) {
	h.agent.checked = true
	h.agent.lastCheck = s
	if s == updater.CheckFailed {
		h.log.Warn("update check failed")
		return
	}
	h.log.Info("update check finished")
}

func (h *logHandler) OnInstalled(restarts map[string]transaction.Restart) {
	h.log.WithField("count", len(restarts)).Info("updates installed")
	for id, kind := range restarts {
		switch kind {
		case transaction.RestartNone, transaction.RestartUnknown:
		default:
			h.log.WithFields(logrus.Fields{
				"package": id,
				"restart": kind.String(),
			}).Warn("restart required")
		}
	}
}

func (h *logHandler) OnUpdateDetail(d transaction.Detail) {
	h.log.WithField("package", d.PackageID).Debug("update detail")
}

func (h *logHandler) OnEulaRequired(rec eula.Record) {
	h.log.WithFields(logrus.Fields{
		"eula":    rec.EulaID,
		"package": rec.PackageID,
		"vendor":  rec.Vendor,
	}).Warn("license agreement requires interactive acceptance, declining")
	// Resolve on the next loop turn; the prompt is still being delivered.
	a := h.agent
	a.dispatch <- func() {
		if err := a.updater.EulaAgreementResult(rec.EulaID, false); err != nil {
			h.log.WithError(err).Warn("unable to decline license agreement")
		}
	}
}

func (h *logHandler) OnRepoSignatureRequired(sig transaction.RepoSignature) {
	h.log.WithFields(logrus.Fields{
		"repo":        sig.RepoName,
		"key":         sig.KeyID,
		"fingerprint": sig.KeyFingerprint,
	}).Warn("repository signature is unverified, refusing to proceed")
}

func (h *logHandler) OnError(err error) {
	h.log.WithError(err).Error("update operation failed")
}
