package cmd

import "testing"

func TestEnqueueCommand_RequiresName(t *testing.T) {
	if _, err := execute(t, "enqueue"); err == nil {
		t.Error("expected error when --name is missing")
	}
}

func TestEnqueueCommand_RejectsInvalidPayload(t *testing.T) {
	_, err := execute(t, "enqueue", "--name", "shell", "--payload", "{not json")
	if err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestEnqueueCommand_RejectsInvalidAt(t *testing.T) {
	_, err := execute(t, "enqueue", "--name", "shell", "--at", "tomorrow")
	if err == nil {
		t.Error("expected error for malformed --at time")
	}
}

func TestEnqueueCommand_RejectsInvalidCron(t *testing.T) {
	_, err := execute(t, "enqueue", "--name", "shell", "--cron", "every day at noon")
	if err == nil {
		t.Error("expected error for malformed cron expression")
	}
}
