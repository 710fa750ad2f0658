package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEditor_Command(t *testing.T) {
	assert.Equal(t, "nano", New("nano").Command())

	t.Setenv("EDITOR", "emacs")
	assert.Equal(t, "emacs", New("").Command())

	t.Setenv("EDITOR", "")
	assert.Equal(t, "vi", New("").Command())
}

func TestParseDraft(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		subject string
		body    string
		wantErr bool
	}{
		{
			name:    "template_form",
			input:   "Subject: hello there\n\nfirst line\nsecond line\n",
			subject: "hello there",
			body:    "first line\nsecond line",
		},
		{
			name:    "bare_subject_line",
			input:   "quick note\n\nbody text",
			subject: "quick note",
			body:    "body text",
		},
		{
			name:    "subject_only",
			input:   "Subject: ping",
			subject: "ping",
			body:    "",
		},
		{
			name:    "leading_blank_lines",
			input:   "\n\nSubject: late start\n\nbody",
			subject: "late start",
			body:    "body",
		},
		{
			name:    "empty_subject",
			input:   "Subject: \n\nbody without subject",
			wantErr: true,
		},
		{
			name:    "empty_input",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, err := ParseDraft(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.subject, draft.Subject)
			assert.Equal(t, tt.body, draft.Body)
		})
	}
}
