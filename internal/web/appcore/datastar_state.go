package appcore

// liveAction is the datastar expression that opens the live stream of a detail page.
func liveAction(liveURL string) string {
	if liveURL == "" {
		return ""
	}
	return "@get('" + liveURL + "')"
}
