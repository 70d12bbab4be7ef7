package compose

import "github.com/siamclean/dispatch/pkg/core/model"

// catalog holds every translatable fragment for one locale. Subjects are
// fmt templates; unit names are given in singular/plural pairs for English
// and as a single form for Thai and Chinese, which do not inflect.
type catalog struct {
	newJobSubject           string
	reAvailableSubject      string
	reminderSubject         string // %s = time-until label
	escalationSubject       string
	escalationPendingLine   string // %s = time-pending label
	cancelledToAdminSubject string
	bookingCancelledSubject string

	scheduledLabel string
	durationLabel  string
	earningsLabel  string
	locationLabel  string
	minutesLabel   string
	bahtLabel      string
	viewJobLabel   string
	viewJobsLabel  string
	fillRatioLine  string // %d/%d = assigned / total
	reasonLabel    string
	notesLabel     string
	cancelledByFmt string // %s = staff id
	groupJobLine   string // %s name, %d minutes, %.2f earnings

	minuteSingular string
	minutePlural   string
	hourSingular   string
	hourPlural     string
	daySingular    string
	dayPlural      string
}

var catalogs = map[model.Locale]catalog{
	model.LocaleEnglish: {
		newJobSubject:           "New job available",
		reAvailableSubject:      "A job has become available again",
		reminderSubject:         "Reminder: your job starts in %s",
		escalationSubject:       "Urgent: job still needs staff",
		escalationPendingLine:   "This job has been waiting for %s without a taker.",
		cancelledToAdminSubject: "Staff cancellation",
		bookingCancelledSubject: "Your booking has been cancelled",

		scheduledLabel: "Scheduled",
		durationLabel:  "Duration",
		earningsLabel:  "Earnings",
		locationLabel:  "Location",
		minutesLabel:   "minutes",
		bahtLabel:      "THB",
		viewJobLabel:   "View job",
		viewJobsLabel:  "View your jobs",
		fillRatioLine:  "Booking staffing: %d/%d positions filled.",
		reasonLabel:    "Reason",
		notesLabel:     "Notes",
		cancelledByFmt: "Cancelled by staff %s",
		groupJobLine:   "%s — %d minutes, %.2f THB",

		minuteSingular: "minute",
		minutePlural:   "minutes",
		hourSingular:   "hour",
		hourPlural:     "hours",
		daySingular:    "day",
		dayPlural:      "days",
	},
	model.LocaleThai: {
		newJobSubject:           "มีงานใหม่",
		reAvailableSubject:      "มีงานว่างอีกครั้ง",
		reminderSubject:         "เตือนความจำ: งานของคุณจะเริ่มในอีก %s",
		escalationSubject:       "ด่วน: งานยังไม่มีผู้รับ",
		escalationPendingLine:   "งานนี้รอผู้รับมาแล้ว %s",
		cancelledToAdminSubject: "พนักงานยกเลิกงาน",
		bookingCancelledSubject: "การจองของคุณถูกยกเลิก",

		scheduledLabel: "กำหนดการ",
		durationLabel:  "ระยะเวลา",
		earningsLabel:  "ค่าตอบแทน",
		locationLabel:  "สถานที่",
		minutesLabel:   "นาที",
		bahtLabel:      "บาท",
		viewJobLabel:   "ดูงาน",
		viewJobsLabel:  "ดูงานของคุณ",
		fillRatioLine:  "สถานะการจอง: มีพนักงานแล้ว %d/%d ตำแหน่ง",
		reasonLabel:    "เหตุผล",
		notesLabel:     "หมายเหตุ",
		cancelledByFmt: "ยกเลิกโดยพนักงาน %s",
		groupJobLine:   "%s — %d นาที, %.2f บาท",

		minuteSingular: "นาที",
		minutePlural:   "นาที",
		hourSingular:   "ชั่วโมง",
		hourPlural:     "ชั่วโมง",
		daySingular:    "วัน",
		dayPlural:      "วัน",
	},
	model.LocaleChinese: {
		newJobSubject:           "有新工作",
		reAvailableSubject:      "有工作再次开放",
		reminderSubject:         "提醒：您的工作将在%s后开始",
		escalationSubject:       "紧急：工作仍无人接单",
		escalationPendingLine:   "该工作已等待%s仍无人接单。",
		cancelledToAdminSubject: "员工取消工作",
		bookingCancelledSubject: "您的预订已被取消",

		scheduledLabel: "时间",
		durationLabel:  "时长",
		earningsLabel:  "报酬",
		locationLabel:  "地点",
		minutesLabel:   "分钟",
		bahtLabel:      "泰铢",
		viewJobLabel:   "查看工作",
		viewJobsLabel:  "查看您的工作",
		fillRatioLine:  "预订人员：已满 %d/%d 个名额。",
		reasonLabel:    "原因",
		notesLabel:     "备注",
		cancelledByFmt: "由员工 %s 取消",
		groupJobLine:   "%s — %d分钟，%.2f泰铢",

		minuteSingular: "分钟",
		minutePlural:   "分钟",
		hourSingular:   "小时",
		hourPlural:     "小时",
		daySingular:    "天",
		dayPlural:      "天",
	},
}

// catalogFor returns the catalog for loc, falling back to English for any
// unrecognised locale.
func catalogFor(loc model.Locale) catalog {
	if c, ok := catalogs[loc]; ok {
		return c
	}
	return catalogs[model.LocaleEnglish]
}
