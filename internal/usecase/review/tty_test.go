package review

import (
	"os"
	"testing"
)

func TestIsTTY(t *testing.T) {
	// Result depends on the environment (false in CI, true in a terminal);
	// the check is that detection runs without panicking on real fds.
	result := IsTTY(os.Stdin.Fd())
	t.Logf("IsTTY(stdin) = %v", result)
}

func TestIsInteractive(t *testing.T) {
	result := IsInteractive()
	t.Logf("IsInteractive() = %v", result)
}

func TestIsOutputTerminal(t *testing.T) {
	result := IsOutputTerminal()
	t.Logf("IsOutputTerminal() = %v", result)
}

func TestTTYDetectionConsistency(t *testing.T) {
	if IsInteractive() != IsTTY(os.Stdin.Fd()) {
		t.Error("IsInteractive should match IsTTY on stdin")
	}
	if IsOutputTerminal() != IsTTY(os.Stdout.Fd()) {
		t.Error("IsOutputTerminal should match IsTTY on stdout")
	}
}
