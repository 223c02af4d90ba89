// Package forms binds and validates HTML form submissions.
package forms

// Errors maps a field name to its validation messages. The empty key holds
// errors that belong to the form as a whole.
type Errors map[string][]string

// NonField is the key for form-wide errors.
const NonField = ""

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

func (e Errors) Get(field string) []string {
	return e[field]
}

// Any reports whether at least one error was recorded.
func (e Errors) Any() bool {
	for _, msgs := range e {
		if len(msgs) > 0 {
			return true
		}
	}
	return false
}

const (
	msgRequired     = "Обязательное поле."
	msgInvalidGroup = "Выберите корректный вариант. Вашего варианта нет среди допустимых значений."
	msgInvalidImage = "Загрузите правильное изображение. Файл, который вы загрузили, поврежден или не является изображением."
	msgImageTooBig  = "Файл слишком большой."
	msgBadLogin     = "Пожалуйста, введите правильные имя пользователя и пароль."
	msgPasswordsDif = "Введенные пароли не совпадают."
)
