package ctdf

type Accessibility string

const (
	AccessibilityNoInformation Accessibility = "NO_INFORMATION"
	AccessibilityPossible      Accessibility = "POSSIBLE"
	AccessibilityNotPossible   Accessibility = "NOT_POSSIBLE"
)

// AccessibilityFromGTFS maps the wheelchair_accessible / wheelchair_boarding
// values of static GTFS files
func AccessibilityFromGTFS(code int) Accessibility {
	switch code {
	case 1:
		return AccessibilityPossible
	case 2:
		return AccessibilityNotPossible
	default:
		return AccessibilityNoInformation
	}
}

// AccessibilityFromGTFSRT maps the VehicleDescriptor wheelchair_accessible enum
func AccessibilityFromGTFSRT(code int) Accessibility {
	switch code {
	case 2:
		return AccessibilityPossible
	case 3:
		return AccessibilityNotPossible
	default:
		return AccessibilityNoInformation
	}
}
