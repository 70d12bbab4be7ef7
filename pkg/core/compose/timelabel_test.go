package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/siamclean/dispatch/pkg/core/model"
)

func TestTimeUntilLabel_English(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{1, "1 minute"},
		{30, "30 minutes"},
		{59, "59 minutes"},
		{60, "1 hour"},
		{75, "1 hour"}, // remainder is dropped, not carried
		{120, "2 hours"},
		{1439, "23 hours"},
		{1440, "1 day"},
		{2880, "2 days"},
		{3000, "2 days"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, TimeUntilLabel(tc.minutes, model.LocaleEnglish), "minutes=%d", tc.minutes)
	}
}

func TestTimePendingLabel_KeepsRemainder(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{45, "45 minutes"},
		{60, "1 hour 0 minutes"},
		{75, "1 hour 15 minutes"},
		{121, "2 hours 1 minute"},
		{150, "2 hours 30 minutes"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, TimePendingLabel(tc.minutes, model.LocaleEnglish), "minutes=%d", tc.minutes)
	}
}

func TestPendingAndUntilLabelsDiffer(t *testing.T) {
	// 75 minutes before start is coarse, 75 minutes overdue is precise.
	assert.Equal(t, "1 hour", TimeUntilLabel(75, model.LocaleEnglish))
	assert.Equal(t, "1 hour 15 minutes", TimePendingLabel(75, model.LocaleEnglish))
}

func TestTimeLabels_NonEnglishLocales(t *testing.T) {
	assert.Equal(t, "30 นาที", TimeUntilLabel(30, model.LocaleThai))
	assert.Equal(t, "2 ชั่วโมง", TimeUntilLabel(120, model.LocaleThai))
	assert.Equal(t, "2 小时", TimeUntilLabel(120, model.LocaleChinese))
	assert.Equal(t, "1 小时 15 分钟", TimePendingLabel(75, model.LocaleChinese))
}

func TestTimeLabels_UnknownLocaleFallsBackToEnglish(t *testing.T) {
	assert.Equal(t, "2 hours", TimeUntilLabel(120, model.Locale("de")))
}
