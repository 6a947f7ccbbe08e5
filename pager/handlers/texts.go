package handlers

// Replies shown to players. Templates take the sender's full name or nickname.
const (
	textGreeting = "Привет! Это пейджер для игры. Жми «Зарегистрироваться», чтобы вступить."
	textRegister = "Зарегистрироваться"

	textAskGroup        = "Ну хорошо, скажи мне номер пачки, чтоб я мог определить твоих дружков"
	textAskGroupAgain   = "Номер пачки это целое число больше нуля. Давай ещё раз."
	textAskNickname     = "Окей, а кликуха у тебя в пачке какая?"
	textNicknameTooLong = "Слишком длинная кликуха, уложись в 64 символа."
	textMissingData     = "Братан %s! Ты слепой, данных не хватает! Давай по новой!"
	textWelcome         = "Окей, добро пожаловать в мрачный мир будущего %s!"
	textRegisterFailed  = "Братан %s! У нас ошибка, пиши админу!"
	textAlreadyPlayer   = "Ты уже в игре, %s."
	textCancelled       = "Регистрация отменена."
	textNothingToCancel = "Отменять нечего."

	textNotRegistered = "Ты ещё не зарегистрирован. Жми «Зарегистрироваться»."
	textInternal      = "Что-то пошло не так, попробуй позже."

	textUnknownText     = "Не понимаю. Посмотри команды в меню."
	textUnknownMedia    = "Картинки и файлы здесь не нужны."
	textUnknownCallback = "Действие больше недоступно"
	textAccessDenied    = "Эта команда только для мастера игры."
	textRateLimited     = "Помедленнее, братан."
)
