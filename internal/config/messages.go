package config

// Messages holds every user-facing string the bot sends, so deployments can
// re-word them in config.yaml. Defaults are in Russian, the locale of the
// program workbook. Fields named *Tpl are fmt templates.
type Messages struct {
	Welcome string `mapstructure:"welcome"`
	Help    string `mapstructure:"help"`

	NotRegistered       string `mapstructure:"not_registered"`
	AskName             string `mapstructure:"ask_name"`
	AskProblems         string `mapstructure:"ask_problems"`
	RegistrationDoneTpl string `mapstructure:"registration_done"`

	ChooseCategory        string `mapstructure:"choose_category"`
	NoCategory            string `mapstructure:"no_category"`
	SelectConfirmStepTpl  string `mapstructure:"select_confirm_step"`
	SelectConfirmChapTpl  string `mapstructure:"select_confirm_chapter"`
	SelectConfirmPointTpl string `mapstructure:"select_confirm_point"`
	SelectConfirmOtherTpl string `mapstructure:"select_confirm_other"`
	NextPointNone         string `mapstructure:"next_point_none"`

	PostSavedTpl      string `mapstructure:"post_saved"`
	PostPublishedTpl  string `mapstructure:"post_published"`
	PostCreateFailTpl string `mapstructure:"post_create_fail"`
	PostEditPrompt    string `mapstructure:"post_edit_prompt"`
	PostEditSaved     string `mapstructure:"post_edit_saved"`
	PostEditNotOwner  string `mapstructure:"post_edit_not_owner"`
	PostEditFailTpl   string `mapstructure:"post_edit_fail"`
	NoPosts           string `mapstructure:"no_posts"`

	Canceled        string `mapstructure:"canceled"`
	NothingToCancel string `mapstructure:"nothing_to_cancel"`

	SupportPrompt string `mapstructure:"support_prompt"`
	SupportSent   string `mapstructure:"support_sent"`
	SupportFailed string `mapstructure:"support_failed"`

	QuestConsent        string `mapstructure:"quest_consent"`
	QuestComplete       string `mapstructure:"quest_complete"`
	QuestNothing        string `mapstructure:"quest_nothing"`
	QuestInvalidChoice  string `mapstructure:"quest_invalid_choice"`
	QuestInvalidMulti   string `mapstructure:"quest_invalid_multi"`
	QuestSaved          string `mapstructure:"quest_saved"`
	QuestProgressTpl    string `mapstructure:"quest_progress"`
	QuestSectionHdrTpl  string `mapstructure:"quest_section_header"`
	QuestEditSavedTpl   string `mapstructure:"quest_edit_saved"`
	QuestSkipped        string `mapstructure:"quest_skipped"`
	QuestChoiceHint     string `mapstructure:"quest_choice_hint"`
	QuestMultiHint      string `mapstructure:"quest_multi_hint"`
	QuestNoConsentReset string `mapstructure:"quest_no_consent"`

	AIUpsell       string `mapstructure:"ai_upsell"`
	AIHeaderTpl    string `mapstructure:"ai_header"`
	AIPartTpl      string `mapstructure:"ai_part"`
	AIInterstitial string `mapstructure:"ai_interstitial"`
	AIPending      string `mapstructure:"ai_pending"`
	AIErrTimeout   string `mapstructure:"ai_err_timeout"`
	AIErrServer    string `mapstructure:"ai_err_server"`
	AIErrKey       string `mapstructure:"ai_err_key"`
	AIErrBalance   string `mapstructure:"ai_err_balance"`
	AIErrRate      string `mapstructure:"ai_err_rate"`
	AIErrEmpty     string `mapstructure:"ai_err_empty"`
	AIErrConfig    string `mapstructure:"ai_err_config"`

	ReminderText string `mapstructure:"reminder_text"`
	ReminderSet  string `mapstructure:"reminder_set"`
	ReminderOff  string `mapstructure:"reminder_off"`
	TimezoneSet  string `mapstructure:"timezone_set"`

	LinkOK   string `mapstructure:"link_ok"`
	LinkBad  string `mapstructure:"link_bad"`
	LinkHint string `mapstructure:"link_hint"`

	GeneralError string `mapstructure:"general_error"`

	LabelCategories    string `mapstructure:"label_categories"`
	LabelMyPosts       string `mapstructure:"label_my_posts"`
	LabelQuestionnaire string `mapstructure:"label_questionnaire"`
	LabelAIHelp        string `mapstructure:"label_ai_help"`
	LabelAIHelpTpl     string `mapstructure:"label_ai_help_point"`
	LabelSupport       string `mapstructure:"label_support"`
	LabelSettings      string `mapstructure:"label_settings"`
	LabelMenu          string `mapstructure:"label_menu"`
}
