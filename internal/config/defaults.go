package config

import "github.com/spf13/viper"

// setDefaults registers default values for every optional parameter.
// Required secrets (bot_token, ai_token, operator_chat_id) have no default.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)

	v.SetDefault("ai_backend", "openai")
	v.SetDefault("ai_base_url", "https://api.openai.com/v1")
	v.SetDefault("ai_model", "gpt-4o")
	v.SetDefault("ai_temperature", 0.8)
	v.SetDefault("ai_timeout", "60s")

	v.SetDefault("db_path", "storage.db")
	v.SetDefault("default_category_id", 0)

	v.SetDefault("scheduler.tasks.reminder.enabled", true)
	v.SetDefault("scheduler.tasks.reminder.schedule", "* * * * *")
	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", "0 4 * * *")

	setMessageDefaults(v)
}

func setMessageDefaults(v *viper.Viper) {
	v.SetDefault("messages.welcome", "Добро пожаловать! Это дневник работы по программе. Выберите точку в меню и присылайте свои записи обычными сообщениями.")
	v.SetDefault("messages.help", "Команды:\n/start — начало работы\n/menu — главное меню\n/register <имя> — регистрация\n/link <код> — привязка аккаунта сайта\n/status — ваш статус\n/cancel — отменить текущее действие")

	v.SetDefault("messages.not_registered", "Вы ещё не зарегистрированы. Нажмите кнопку ниже или отправьте /register <имя>.")
	v.SetDefault("messages.ask_name", "Как вас зовут? Отправьте имя одним сообщением.")
	v.SetDefault("messages.ask_problems", "С чем вы работаете? Отметьте подходящие пункты и нажмите «Готово».")
	v.SetDefault("messages.registration_done", "Готово, %s! Регистрация завершена. Откройте меню, чтобы выбрать точку.")

	v.SetDefault("messages.choose_category", "Выберите раздел:")
	v.SetDefault("messages.no_category", "Сначала выберите точку, в которую писать. Откройте «Категории» в меню.")
	v.SetDefault("messages.select_confirm_step", "Выбран %s. Теперь выберите главу.")
	v.SetDefault("messages.select_confirm_chapter", "Выбрана %s. Теперь выберите точку.")
	v.SetDefault("messages.select_confirm_point", "Выбрана %s. Присылайте записи обычными сообщениями — они сохранятся в эту точку.")
	v.SetDefault("messages.select_confirm_other", "Выбрана %s.")
	v.SetDefault("messages.next_point_none", "Это последняя точка — дальше пока ничего нет.")

	v.SetDefault("messages.post_saved", "Запись сохранена как черновик: «%s».")
	v.SetDefault("messages.post_published", "Запись опубликована: «%s».")
	v.SetDefault("messages.post_create_fail", "Не удалось сохранить запись: %s")
	v.SetDefault("messages.post_edit_prompt", "Отправьте новый текст записи одним сообщением. /cancel — отменить.")
	v.SetDefault("messages.post_edit_saved", "Запись обновлена.")
	v.SetDefault("messages.post_edit_not_owner", "Эту запись редактировать нельзя — она принадлежит другому автору.")
	v.SetDefault("messages.post_edit_fail", "Не удалось обновить запись: %s")
	v.SetDefault("messages.no_posts", "В этой точке у вас пока нет записей.")

	v.SetDefault("messages.canceled", "Действие отменено.")
	v.SetDefault("messages.nothing_to_cancel", "Сейчас нечего отменять.")

	v.SetDefault("messages.support_prompt", "Напишите сообщение для поддержки одним сообщением — мы передадим его оператору.")
	v.SetDefault("messages.support_sent", "Сообщение передано в поддержку. Мы ответим вам здесь.")
	v.SetDefault("messages.support_failed", "Не получилось отправить сообщение. Попробуйте ещё раз чуть позже.")

	v.SetDefault("messages.quest_consent", "Анкета помогает персонализировать подсказки. Заполнять её можно в любом порядке и частями. Начнём?")
	v.SetDefault("messages.quest_complete", "Анкета заполнена. Спасибо!")
	v.SetDefault("messages.quest_nothing", "Неотвеченных вопросов больше нет.")
	v.SetDefault("messages.quest_invalid_choice", "Не понял ответ. Отправьте номер варианта или нажмите кнопку.")
	v.SetDefault("messages.quest_invalid_multi", "Не понял ответ. Отправьте номера вариантов через запятую, например: 1,3.")
	v.SetDefault("messages.quest_saved", "Ответ сохранён.")
	v.SetDefault("messages.quest_progress", "Анкета заполнена на %d%% (%d из %d).")
	v.SetDefault("messages.quest_section_header", "Раздел «%s»")
	v.SetDefault("messages.quest_edit_saved", "Ответ обновлён: %s")
	v.SetDefault("messages.quest_skipped", "Вопрос пропущен.")
	v.SetDefault("messages.quest_choice_hint", "Отправьте номер варианта:")
	v.SetDefault("messages.quest_multi_hint", "Отправьте номера вариантов через запятую:")
	v.SetDefault("messages.quest_no_consent", "Сначала подтвердите согласие на заполнение анкеты.")

	v.SetDefault("messages.ai_upsell", "Подсказки ИИ доступны в PRO-подписке. Оформить её можно на сайте в личном кабинете.")
	v.SetDefault("messages.ai_header", "🤖 Рекомендации по теме «%s»\n\n")
	v.SetDefault("messages.ai_part", "Часть %d/%d\n\n")
	v.SetDefault("messages.ai_interstitial", "Готовлю рекомендации. Пока ждём — ответьте ещё на один вопрос анкеты:")
	v.SetDefault("messages.ai_pending", "Готовлю рекомендации, это займёт немного времени…")
	v.SetDefault("messages.ai_err_timeout", "Сервис подсказок не ответил вовремя. Нажмите «Обновить», чтобы попробовать ещё раз.")
	v.SetDefault("messages.ai_err_server", "Сервис подсказок временно недоступен. Попробуйте чуть позже.")
	v.SetDefault("messages.ai_err_key", "Подсказки сейчас не работают: сервис не настроен. Мы уже знаем об этом.")
	v.SetDefault("messages.ai_err_balance", "Подсказки временно приостановлены. Попробуйте позже.")
	v.SetDefault("messages.ai_err_rate", "Слишком много запросов подряд. Подождите минуту и нажмите «Обновить».")
	v.SetDefault("messages.ai_err_empty", "Не получилось подготовить рекомендации. Нажмите «Обновить», чтобы попробовать ещё раз.")
	v.SetDefault("messages.ai_err_config", "Подсказки сейчас не работают: сервис не настроен.")

	v.SetDefault("messages.reminder_text", "Напоминание: сегодня вы ещё ничего не записали. Загляните в свою точку 🙂")
	v.SetDefault("messages.reminder_set", "Напоминание установлено на %s.")
	v.SetDefault("messages.reminder_off", "Напоминание выключено.")
	v.SetDefault("messages.timezone_set", "Часовой пояс сохранён: UTC%+d.")

	v.SetDefault("messages.link_ok", "Аккаунт сайта привязан. Ваши записи теперь под одним логином.")
	v.SetDefault("messages.link_bad", "Код не подошёл. Проверьте его в личном кабинете на сайте.")
	v.SetDefault("messages.link_hint", "Чтобы привязать аккаунт сайта, получите код в личном кабинете и отправьте команду /link КОД.")

	v.SetDefault("messages.general_error", "Что-то пошло не так. Попробуйте ещё раз.")

	v.SetDefault("messages.label_categories", "📂 Категории")
	v.SetDefault("messages.label_my_posts", "📝 Мои записи")
	v.SetDefault("messages.label_questionnaire", "📋 Анкета")
	v.SetDefault("messages.label_ai_help", "🤖 Помощь ИИ")
	v.SetDefault("messages.label_ai_help_point", "🤖 Помощь ИИ: %s")
	v.SetDefault("messages.label_support", "🆘 Поддержка")
	v.SetDefault("messages.label_settings", "⚙️ Настройки")
	v.SetDefault("messages.label_menu", "☰ Меню")
}
