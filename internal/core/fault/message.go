package fault

// UserMessage derives a one-line user-facing message and up to two
// actionable suggestions from an error's kind. The raw technical message is
// never shown directly; it stays in logs and structured context.
func UserMessage(err error) (string, []string) {
	switch Classify(err) {
	case KindValidation:
		return "Some calendar data is incomplete or invalid.", []string{
			"Check that the affected record has all required fields",
			"Correct the highlighted values and try again",
		}
	case KindNetwork:
		return "The calendar store could not be reached.", []string{
			"Check your connection",
			"Retry in a few moments",
		}
	case KindData:
		return "A referenced record no longer exists.", []string{
			"Run a full sync to clean up stale references",
		}
	case KindPermission:
		return "You don't have permission for this calendar operation.", []string{
			"Ask an administrator to grant calendar access",
		}
	case KindSync:
		return "Calendar synchronization did not complete.", []string{
			"Run a manual sync",
			"If the problem persists, check the service logs",
		}
	default:
		return "An unexpected error occurred while updating the calendar.", []string{
			"Retry the operation",
			"Check the service logs for details",
		}
	}
}
