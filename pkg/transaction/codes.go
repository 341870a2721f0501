package transaction

// The code enums below mirror the package service's wire values. They are
// transported as unsigned integers in signal payloads; unknown values decode
// to the Unknown member of each enum.

// Info classifies a streamed package event.
type Info uint32

const (
	InfoUnknown Info = iota
	InfoInstalled
	InfoAvailable
	InfoLow
	InfoEnhancement
	InfoNormal
	InfoBugfix
	InfoImportant
	InfoSecurity
	InfoBlocked
	InfoDownloading
	InfoUpdating
	InfoInstalling
	InfoRemoving
	InfoCleanup
	InfoObsoleting
)

func (i Info) String() string {
	switch i {
	case InfoInstalled:
		return "installed"
	case InfoAvailable:
		return "available"
	case InfoLow:
		return "low"
	case InfoEnhancement:
		return "enhancement"
	case InfoNormal:
		return "normal"
	case InfoBugfix:
		return "bugfix"
	case InfoImportant:
		return "important"
	case InfoSecurity:
		return "security"
	case InfoBlocked:
		return "blocked"
	case InfoDownloading:
		return "downloading"
	case InfoUpdating:
		return "updating"
	case InfoInstalling:
		return "installing"
	case InfoRemoving:
		return "removing"
	case InfoCleanup:
		return "cleanup"
	case InfoObsoleting:
		return "obsoleting"
	}
	return "unknown"
}

// Exit is a transaction's terminal status.
type Exit uint32

const (
	ExitUnknown Exit = iota
	ExitSuccess
	ExitFailed
	ExitCancelled
	ExitKeyRequired
	ExitEulaRequired
	ExitKilled
	ExitMediaChangeRequired
	ExitNeedUntrusted
)

func (e Exit) String() string {
	switch e {
	case ExitSuccess:
		return "success"
	case ExitFailed:
		return "failed"
	case ExitCancelled:
		return "cancelled"
	case ExitKeyRequired:
		return "key-required"
	case ExitEulaRequired:
		return "eula-required"
	case ExitKilled:
		return "killed"
	case ExitMediaChangeRequired:
		return "media-change-required"
	case ExitNeedUntrusted:
		return "need-untrusted"
	}
	return "unknown"
}

// Error is the failure cause reported ahead of a failed terminal event.
type Error uint32

const (
	ErrorUnknown Error = iota
	ErrorOom
	ErrorNoNetwork
	ErrorNotSupported
	ErrorInternalError
	ErrorGpgFailure
	ErrorPackageIDInvalid
	ErrorPackageNotInstalled
	ErrorPackageNotFound
	ErrorPackageAlreadyInstalled
	ErrorPackageDownloadFailed
	ErrorDepResolutionFailed
	ErrorCannotGetLock
	ErrorNoLicenseAgreement
	ErrorTransactionError
	ErrorRepoNotFound
	ErrorCannotRemoveSystemPackage
	ErrorMissingGpgSignature
	ErrorNoCache
	ErrorRepoConfigurationError
	ErrorFailedConfigParsing
	ErrorCannotCancel
	ErrorUpdateNotFound
	ErrorNotAuthorized
)

func (e Error) String() string {
	switch e {
	case ErrorOom:
		return "out-of-memory"
	case ErrorNoNetwork:
		return "no-network"
	case ErrorNotSupported:
		return "not-supported"
	case ErrorInternalError:
		return "internal-error"
	case ErrorGpgFailure:
		return "gpg-failure"
	case ErrorPackageIDInvalid:
		return "package-id-invalid"
	case ErrorPackageNotInstalled:
		return "package-not-installed"
	case ErrorPackageNotFound:
		return "package-not-found"
	case ErrorPackageAlreadyInstalled:
		return "package-already-installed"
	case ErrorPackageDownloadFailed:
		return "package-download-failed"
	case ErrorDepResolutionFailed:
		return "dep-resolution-failed"
	case ErrorCannotGetLock:
		return "cannot-get-lock"
	case ErrorNoLicenseAgreement:
		return "no-license-agreement"
	case ErrorTransactionError:
		return "transaction-error"
	case ErrorRepoNotFound:
		return "repo-not-found"
	case ErrorCannotRemoveSystemPackage:
		return "cannot-remove-system-package"
	case ErrorMissingGpgSignature:
		return "missing-gpg-signature"
	case ErrorNoCache:
		return "no-cache"
	case ErrorRepoConfigurationError:
		return "repo-configuration-error"
	case ErrorFailedConfigParsing:
		return "failed-config-parsing"
	case ErrorCannotCancel:
		return "cannot-cancel"
	case ErrorUpdateNotFound:
		return "update-not-found"
	case ErrorNotAuthorized:
		return "not-authorized"
	}
	return "unknown"
}

// Restart describes the restart scope an update demands.
type Restart uint32

const (
	RestartUnknown Restart = iota
	RestartNone
	RestartApplication
	RestartSession
	RestartSystem
	RestartSecuritySession
	RestartSecuritySystem
)

func (r Restart) String() string {
	switch r {
	case RestartNone:
		return "none"
	case RestartApplication:
		return "application"
	case RestartSession:
		return "session"
	case RestartSystem:
		return "system"
	case RestartSecuritySession:
		return "security-session"
	case RestartSecuritySystem:
		return "security-system"
	}
	return "unknown"
}

// SigType identifies a repository signature scheme.
type SigType uint32

const (
	SigTypeUnknown SigType = iota
	SigTypeGpg
)

func (s SigType) String() string {
	if s == SigTypeGpg {
		return "gpg"
	}
	return "unknown"
}

// UpdateState reports the stability classification of an update.
type UpdateState uint32

const (
	UpdateStateUnknown UpdateState = iota
	UpdateStateStable
	UpdateStateUnstable
	UpdateStateTesting
)

func (u UpdateState) String() string {
	switch u {
	case UpdateStateStable:
		return "stable"
	case UpdateStateUnstable:
		return "unstable"
	case UpdateStateTesting:
		return "testing"
	}
	return "unknown"
}
