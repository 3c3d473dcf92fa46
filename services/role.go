package services

import (
	"regexp"
	"strings"

	"github.com/campusride/transport_portal/models"
)

const (
	PortalPassenger = "passenger"
	PortalDriver    = "driver"
	PortalStaff     = "staff"
)

var (
	rollNumberLocal = regexp.MustCompile(`^[0-9]{2}[a-z]{2,4}[0-9]{2,4}$|^[0-9]{6,}$`)
	staffLocalHints = []string{"admin", "transport", "finance", "office", "staff"}
)

// InferRole picks which login portal to try first. An explicit hint always
// wins; otherwise the email is matched against driver, staff and roll number
// patterns, falling back to passenger.
func InferRole(email, hint string) string {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case PortalPassenger, "student":
		return PortalPassenger
	case PortalDriver:
		return PortalDriver
	case PortalStaff, models.RoleAdmin, models.RoleTransport, models.RoleFinance:
		return PortalStaff
	}

	local := strings.ToLower(email)
	if at := strings.IndexByte(local, '@'); at >= 0 {
		local = local[:at]
	}

	if rollNumberLocal.MatchString(local) {
		return PortalPassenger
	}
	if strings.Contains(local, "driver") {
		return PortalDriver
	}
	for _, h := range staffLocalHints {
		if strings.Contains(local, h) {
			return PortalStaff
		}
	}
	return PortalPassenger
}

// FallbackPortals lists the portals to try after the inferred one fails.
func FallbackPortals(first string) []string {
	all := []string{PortalPassenger, PortalDriver, PortalStaff}
	out := []string{first}
	for _, p := range all {
		if p != first {
			out = append(out, p)
		}
	}
	return out
}
