package email

const (
	subjectCriticalLeadFmt = "Critical lead: %s (score %d)"
)
