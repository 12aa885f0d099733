// Package questionnaire defines the static intake questionnaire and the
// engine that selects questions, validates answers, and tracks progress.
package questionnaire

// QuestionType determines how raw answer text is coerced.
type QuestionType string

const (
	TypeChoice   QuestionType = "choice"
	TypeMultiple QuestionType = "multiple"
	TypeText     QuestionType = "text"
	TypeDate     QuestionType = "date"
)

// Question is one typed question. Options are set only for choice/multiple.
type Question struct {
	ID      string
	Prompt  string
	Type    QuestionType
	Options []string
}

// Section is an ordered group of questions.
type Section struct {
	ID        string
	Title     string
	Questions []Question
}

// The program-type question is always offered first while unanswered, since
// prompt personalization depends on it.
const (
	PrioritySection  = "section1"
	PriorityQuestion = "program_type"
)

// ProgramOptions are the recovery programs a user can report. The AI prompt
// builder matches the stored answer against these by substring.
var ProgramOptions = []string{
	"12 шагов НА (Анонимные Наркоманы)",
	"Анонимные Алкоголики (АА)",
	"Анонимные Игроки (ГА)",
	"Анонимные Переедающие (ОА)",
	"ВДА (Взрослые Дети Алкоголиков)",
	"Другая программа",
}

// Sections is the immutable questionnaire definition: seven sections of
// typed questions, answered incrementally over many conversations.
var Sections = []Section{
	{
		ID:    "section1",
		Title: "Основная информация",
		Questions: []Question{
			{ID: "program_type", Prompt: "По какой программе вы выздоравливаете?", Type: TypeChoice, Options: ProgramOptions},
			{ID: "birth_date", Prompt: "Укажите дату вашего рождения (например, 15.03.1990).", Type: TypeDate},
			{ID: "gender", Prompt: "Укажите ваш пол.", Type: TypeChoice, Options: []string{"Мужской", "Женский"}},
			{ID: "city", Prompt: "В каком городе вы живёте?", Type: TypeText},
			{ID: "occupation", Prompt: "Чем вы занимаетесь (работа, учёба)?", Type: TypeText},
			{ID: "how_found", Prompt: "Как вы узнали о программе?", Type: TypeChoice, Options: []string{"Через знакомых", "Через интернет", "По совету врача", "Через группу", "Другое"}},
		},
	},
	{
		ID:    "section2",
		Title: "Зависимость",
		Questions: []Question{
			{ID: "addiction_type", Prompt: "С какими зависимостями вы боретесь? Укажите все подходящие варианты.", Type: TypeMultiple, Options: []string{"Наркотики", "Алкоголь", "Игры", "Еда", "Никотин", "Созависимость", "Другое"}},
			{ID: "use_duration", Prompt: "Как долго длилось активное употребление?", Type: TypeChoice, Options: []string{"Менее года", "1-3 года", "3-5 лет", "5-10 лет", "Более 10 лет"}},
			{ID: "last_use_date", Prompt: "Когда было последнее употребление (например, 01.06.2024)?", Type: TypeDate},
			{ID: "clean_time", Prompt: "Какой у вас сейчас чистый срок?", Type: TypeChoice, Options: []string{"Менее месяца", "1-6 месяцев", "6-12 месяцев", "1-3 года", "Более 3 лет"}},
			{ID: "tried_quit", Prompt: "Пытались ли вы раньше прекратить самостоятельно?", Type: TypeChoice, Options: []string{"Да, много раз", "Да, несколько раз", "Один раз", "Нет"}},
			{ID: "consequences", Prompt: "Какие последствия принесла зависимость? Укажите все подходящие варианты.", Type: TypeMultiple, Options: []string{"Здоровье", "Семья", "Работа", "Финансы", "Закон", "Друзья", "Самооценка"}},
			{ID: "addiction_story", Prompt: "Расскажите кратко историю вашей зависимости.", Type: TypeText},
		},
	},
	{
		ID:    "section3",
		Title: "Программа и выздоровление",
		Questions: []Question{
			{ID: "in_program_since", Prompt: "Когда вы пришли в программу (например, 10.01.2023)?", Type: TypeDate},
			{ID: "has_sponsor", Prompt: "Есть ли у вас наставник (спонсор)?", Type: TypeChoice, Options: []string{"Да", "Нет", "В поиске"}},
			{ID: "meetings_frequency", Prompt: "Как часто вы посещаете собрания?", Type: TypeChoice, Options: []string{"Каждый день", "Несколько раз в неделю", "Раз в неделю", "Реже", "Не посещаю"}},
			{ID: "steps_completed", Prompt: "На каком шаге программы вы сейчас находитесь?", Type: TypeChoice, Options: []string{"Ещё не начинал", "1-3 шаг", "4-6 шаг", "7-9 шаг", "10-12 шаг", "Прошёл все шаги"}},
			{ID: "home_group", Prompt: "Есть ли у вас домашняя группа? Если да, напишите её название.", Type: TypeText},
			{ID: "service", Prompt: "Несёте ли вы служение в группе?", Type: TypeChoice, Options: []string{"Да", "Нет", "Планирую"}},
		},
	},
	{
		ID:    "section4",
		Title: "Здоровье",
		Questions: []Question{
			{ID: "health_conditions", Prompt: "Есть ли у вас хронические заболевания? Укажите все подходящие варианты.", Type: TypeMultiple, Options: []string{"Нет", "Сердечно-сосудистые", "Желудочно-кишечные", "Неврологические", "Психические", "Другое"}},
			{ID: "medications", Prompt: "Принимаете ли вы лекарства? Если да, какие?", Type: TypeText},
			{ID: "sleep_quality", Prompt: "Как вы оцениваете качество своего сна?", Type: TypeChoice, Options: []string{"Хорошее", "Удовлетворительное", "Плохое", "Очень плохое"}},
			{ID: "physical_activity", Prompt: "Занимаетесь ли вы физической активностью?", Type: TypeChoice, Options: []string{"Регулярно", "Иногда", "Редко", "Нет"}},
			{ID: "therapy", Prompt: "Работаете ли вы с психологом или психотерапевтом?", Type: TypeChoice, Options: []string{"Да, регулярно", "Иногда", "Раньше работал", "Нет"}},
		},
	},
	{
		ID:    "section5",
		Title: "Отношения и окружение",
		Questions: []Question{
			{ID: "family_status", Prompt: "Ваше семейное положение?", Type: TypeChoice, Options: []string{"Холост/не замужем", "В отношениях", "Женат/замужем", "В разводе", "Вдовец/вдова"}},
			{ID: "children", Prompt: "Есть ли у вас дети?", Type: TypeChoice, Options: []string{"Да", "Нет"}},
			{ID: "living_situation", Prompt: "С кем вы живёте?", Type: TypeChoice, Options: []string{"Один", "С семьёй", "С родителями", "С друзьями", "В реабилитационном центре"}},
			{ID: "support_circle", Prompt: "Кто поддерживает вас в выздоровлении? Укажите все подходящие варианты.", Type: TypeMultiple, Options: []string{"Семья", "Друзья", "Группа", "Спонсор", "Психолог", "Никто"}},
			{ID: "using_contacts", Prompt: "Остались ли в вашем окружении употребляющие люди?", Type: TypeChoice, Options: []string{"Да, много", "Да, несколько", "Нет"}},
			{ID: "relationships_issues", Prompt: "Какие сложности в отношениях беспокоят вас сейчас?", Type: TypeText},
		},
	},
	{
		ID:    "section6",
		Title: "Эмоциональное состояние",
		Questions: []Question{
			{ID: "mood", Prompt: "Как вы оцениваете своё эмоциональное состояние в последнее время?", Type: TypeChoice, Options: []string{"Хорошее", "Ровное", "Подавленное", "Тревожное", "Нестабильное"}},
			{ID: "motivation_level", Prompt: "Насколько сильна ваша мотивация к выздоровлению?", Type: TypeChoice, Options: []string{"Очень сильная", "Сильная", "Средняя", "Слабая"}},
			{ID: "triggers", Prompt: "Что чаще всего провоцирует тягу? Укажите все подходящие варианты.", Type: TypeMultiple, Options: []string{"Стресс", "Конфликты", "Одиночество", "Скука", "Праздники", "Старые знакомые", "Усталость"}},
			{ID: "coping", Prompt: "Что помогает вам справляться с тягой? Укажите все подходящие варианты.", Type: TypeMultiple, Options: []string{"Звонок спонсору", "Собрание", "Молитва/медитация", "Спорт", "Литература", "Письменная работа"}},
			{ID: "fears", Prompt: "Какие страхи мешают вам больше всего?", Type: TypeText},
			{ID: "resentments", Prompt: "Есть ли обиды, с которыми вы сейчас работаете?", Type: TypeText},
		},
	},
	{
		ID:    "section7",
		Title: "Цели и ресурсы",
		Questions: []Question{
			{ID: "goals", Prompt: "Какие цели вы ставите перед собой на ближайший год?", Type: TypeText},
			{ID: "strengths", Prompt: "Какие свои сильные стороны вы можете назвать?", Type: TypeText},
			{ID: "hobbies", Prompt: "Чем вы любите заниматься в свободное время?", Type: TypeText},
			{ID: "commitment", Prompt: "Сколько времени в день вы готовы уделять работе по программе?", Type: TypeChoice, Options: []string{"До 15 минут", "15-30 минут", "30-60 минут", "Более часа"}},
			{ID: "expectations", Prompt: "Чего вы ждёте от работы с этим ботом?", Type: TypeText},
			{ID: "notes", Prompt: "Что ещё вы хотели бы рассказать о себе?", Type: TypeText},
		},
	},
}

// Ref points at one question within the structure.
type Ref struct {
	SectionID  string
	QuestionID string
	Section    *Section
	Question   *Question
}

// Key returns the ledger id "section.question" for a question.
func Key(sectionID, questionID string) string {
	return sectionID + "." + questionID
}

// Find resolves a (section, question) pair, or nil when either is unknown.
func Find(sectionID, questionID string) *Ref {
	for i := range Sections {
		sec := &Sections[i]
		if sec.ID != sectionID {
			continue
		}
		for j := range sec.Questions {
			if sec.Questions[j].ID == questionID {
				return &Ref{SectionID: sectionID, QuestionID: questionID, Section: sec, Question: &sec.Questions[j]}
			}
		}
	}
	return nil
}

// FindSection resolves a section by id.
func FindSection(sectionID string) *Section {
	for i := range Sections {
		if Sections[i].ID == sectionID {
			return &Sections[i]
		}
	}
	return nil
}

// Total returns the number of questions across all sections.
func Total() int {
	n := 0
	for i := range Sections {
		n += len(Sections[i].Questions)
	}
	return n
}
