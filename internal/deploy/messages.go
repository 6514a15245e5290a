package deploy

import (
	"fmt"
	"strings"
)

// SuccessMessage describes what happened and the ongoing workflow: commit
// the local changes, push, and re-run provisioning to pick them up.
func SuccessMessage(result *Result, host string) string {
	var b strings.Builder

	b.WriteString("Your project is configured for deployment.\n\n")
	fmt.Fprintf(&b, "Remote checkout: ~/%s (from %s)\n", result.RemoteDir, result.OriginURL)

	if len(result.AddedRequirements) > 0 {
		fmt.Fprintf(&b, "Added to requirements.txt: %s\n",
			strings.Join(result.AddedRequirements, ", "))
	}
	if result.SettingsUpdated {
		b.WriteString("Added platform settings block to settings.py\n")
	}

	b.WriteString("\nNext steps:\n")
	b.WriteString("  - Review and commit the local changes\n")
	b.WriteString("  - git push, then re-run `paw deploy` to pull them on the host\n")
	if host != "" {
		fmt.Fprintf(&b, "  - Configure the web app to serve https://%s\n", host)
	}

	return b.String()
}
