package notify

// Key identifies a notification message.
type Key string

const (
	FetchFailed    Key = "fetch_failed"
	AddFailed      Key = "add_failed"
	ToggleFailed   Key = "toggle_failed"
	EditFailed     Key = "edit_failed"
	DeleteFailed   Key = "delete_failed"
	SaveFailed     Key = "save_failed"
	Busy           Key = "busy"
	Registered     Key = "registered"
	RegisterFailed Key = "register_failed"
	LoggedIn       Key = "logged_in"
	LoginFailed    Key = "login_failed"
	LoggedOut      Key = "logged_out"
)

var messages = map[Lang]map[Key]string{
	Persian: {
		FetchFailed:    "دریافت وظایف ناموفق بود",
		AddFailed:      "افزودن وظیفه ناموفق بود",
		ToggleFailed:   "تغییر وضعیت وظیفه ناموفق بود",
		EditFailed:     "ویرایش وظیفه ناموفق بود",
		DeleteFailed:   "حذف وظیفه ناموفق بود",
		SaveFailed:     "ذخیره‌سازی وظایف ناموفق بود",
		Busy:           "لطفاً تا پایان درخواست قبلی صبر کنید",
		Registered:     "ثبت‌نام انجام شد، اکنون وارد شوید",
		RegisterFailed: "ثبت‌نام ناموفق بود",
		LoggedIn:       "با موفقیت وارد شدید",
		LoginFailed:    "ورود ناموفق بود",
		LoggedOut:      "از حساب خارج شدید",
	},
	English: {
		FetchFailed:    "Could not load tasks",
		AddFailed:      "Could not add task",
		ToggleFailed:   "Could not update task",
		EditFailed:     "Could not edit task",
		DeleteFailed:   "Could not delete task",
		SaveFailed:     "Could not save tasks",
		Busy:           "Please wait for the previous request to finish",
		Registered:     "Registration complete, please log in",
		RegisterFailed: "Registration failed",
		LoggedIn:       "Logged in",
		LoginFailed:    "Login failed",
		LoggedOut:      "Logged out",
	},
}

// Text returns the localized message for key, falling back to English and then the key itself.
func Text(lang Lang, key Key) string {
	if s, ok := messages[lang][key]; ok {
		return s
	}
	if s, ok := messages[English][key]; ok {
		return s
	}
	return string(key)
}
