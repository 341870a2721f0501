// Package fixtures provides canned records for tests.
package fixtures

import (
	"fmt"

	"github.com/pkwatch/pkwatch/pkg/eula"
	"github.com/pkwatch/pkwatch/pkg/transaction"
)

// PackageID mints a well-formed package ID for the given name.
func PackageID(name string) string {
	return fmt.Sprintf("%s;1.0-1;x86_64;updates", name)
}

// Eula returns a pending agreement record for the given identifiers.
func Eula(eulaID, pkgName string) eula.Record {
	return eula.Record{
		EulaID:    eulaID,
		PackageID: PackageID(pkgName),
		Vendor:    "VendorX",
		License:   "license text",
	}
}

// Detail returns a populated update-detail record for the given name.
func Detail(pkgName string) transaction.Detail {
	return transaction.Detail{
		PackageID:  PackageID(pkgName),
		Updates:    []string{PackageID(pkgName)},
		VendorURLs: []string{"https://vendor.example/advisory"},
		CVEURLs:    []string{"https://cve.example/CVE-2020-0001"},
		Restart:    transaction.RestartNone,
		UpdateText: "assorted fixes",
		Changelog:  "- fixed things",
		State:      transaction.UpdateStateStable,
	}
}

// RepoSignature returns an unverified-signature report for the given name.
func RepoSignature(pkgName string) transaction.RepoSignature {
	return transaction.RepoSignature{
		PackageID:      PackageID(pkgName),
		RepoName:       "updates",
		KeyURL:         "https://keys.example/release.key",
		KeyUserID:      "Release Signing <release@example>",
		KeyID:          "DEADBEEF",
		KeyFingerprint: "DEAD BEEF DEAD BEEF",
		KeyTimestamp:   "2020-01-01",
		Type:           transaction.SigTypeGpg,
	}
}
