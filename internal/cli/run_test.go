package cli

import "testing"

func TestApplyUserConfigFillsUnsetFlagsOnly(t *testing.T) {
	cmd := RunCmd{
		Image:  "flag-image",
		Region: "",
	}
	cmd.applyUserConfig(userConfig{
		Image:     "file-image",
		Region:    "eu-central-1",
		Address:   "/run/containerd/containerd.sock",
		Namespace: "builds",
		Profile:   "ci",
	})

	if cmd.Image != "flag-image" {
		t.Fatalf("Image = %q, want the flag value to win", cmd.Image)
	}
	if cmd.Region != "eu-central-1" {
		t.Fatalf("Region = %q, want the file value to fill the unset flag", cmd.Region)
	}
	if cmd.Namespace != "builds" || cmd.Profile != "ci" {
		t.Fatalf("Namespace = %q, Profile = %q, want file values", cmd.Namespace, cmd.Profile)
	}
}

func TestExitErrorMessage(t *testing.T) {
	err := &ExitError{Code: 2}
	if got := err.Error(); got != "build exited with code 2" {
		t.Fatalf("Error() = %q", got)
	}
}
