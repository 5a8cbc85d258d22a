package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Константы валидации
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MinDisplayNameLength = 2
	MaxDisplayNameLength = 100
	MinItemTitleLength = 3
	MaxItemTitleLength = 200
	MaxItemDescriptionLength = 5000
	MinReasonLength = 3
	MaxReasonLength = 1000
	MinMessageLength = 1
	MaxMessageLength = 5000
	MaxPhoneLength = 20
	MinReward = 0.0
	MaxReward = 1000000.0
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.TrimSpace(email)
	email = strings.ToLower(email)

	// Базовая проверка формата
	if !strings.Contains(email, "@") {
		return fmt.Errorf("email должен содержать символ @")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}

	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}

	if !strings.Contains(domainPart, ".") {
		return fmt.Errorf("доменная часть email должна содержать точку")
	}

	// Проверка на валидные символы в локальной части
	emailRegex := regexp.MustCompile(`^[a-z0-9._+-]+$`)
	if !emailRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}

	// Проверка на валидные символы в доменной части
	domainRegex := regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	if !domainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateUsername проверяет имя пользователя.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("имя пользователя обязательно")
	}

	username = strings.TrimSpace(username)

	// Проверка длины
	if err := ValidateLength("имя пользователя", username, MinUsernameLength, MaxUsernameLength); err != nil {
		return err
	}

	// Проверка на допустимые символы (только буквы, цифры и подчеркивание)
	usernameRegex := regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("имя пользователя может содержать только буквы, цифры и подчеркивание")
	}

	// Проверка, что не начинается с цифры
	if len(username) > 0 && unicode.IsDigit(rune(username[0])) {
		return fmt.Errorf("имя пользователя не может начинаться с цифры")
	}

	return nil
}

// ValidateDisplayName проверяет отображаемое имя.
func ValidateDisplayName(displayName string) error {
	if displayName == "" {
		return fmt.Errorf("отображаемое имя обязательно")
	}

	displayName = strings.TrimSpace(displayName)

	// Проверка длины
	if err := ValidateLength("отображаемое имя", displayName, MinDisplayNameLength, MaxDisplayNameLength); err != nil {
		return err
	}

	// Проверка на недопустимые символы (только буквы, цифры, пробелы и некоторые спецсимволы)
	displayNameRegex := regexp.MustCompile(`^[a-zA-Zа-яА-ЯёЁ0-9\s\-_.,!?()]+$`)
	if !displayNameRegex.MatchString(displayName) {
		return fmt.Errorf("отображаемое имя содержит недопустимые символы")
	}

	return nil
}

// ValidateItemTitle проверяет заголовок объявления.
func ValidateItemTitle(title string) error {
	if title == "" {
		return fmt.Errorf("заголовок объявления обязателен")
	}

	title = strings.TrimSpace(title)

	if err := ValidateLength("заголовок объявления", title, MinItemTitleLength, MaxItemTitleLength); err != nil {
		return err
	}

	return nil
}

// ValidateItemDescription проверяет описание объявления.
func ValidateItemDescription(description string) error {
	if description == "" {
		return nil
	}

	description = strings.TrimSpace(description)

	if err := ValidateLength("описание объявления", description, 0, MaxItemDescriptionLength); err != nil {
		return err
	}

	return nil
}

// ValidateReason проверяет причину модерационного действия.
func ValidateReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("причина обязательна")
	}

	reason = strings.TrimSpace(reason)

	if err := ValidateLength("причина", reason, MinReasonLength, MaxReasonLength); err != nil {
		return err
	}

	return nil
}

// ValidateReward проверяет размер вознаграждения.
func ValidateReward(reward *float64) error {
	if reward != nil {
		if *reward < MinReward {
			return fmt.Errorf("вознаграждение не может быть отрицательным")
		}
		if *reward > MaxReward {
			return fmt.Errorf("вознаграждение не может превышать %.0f", MaxReward)
		}
	}
	return nil
}

// ValidatePhone проверяет номер телефона.
func ValidatePhone(phone *string) error {
	if phone != nil && *phone != "" {
		p := strings.TrimSpace(*phone)

		if err := ValidateLength("телефон", p, 0, MaxPhoneLength); err != nil {
			return err
		}

		phoneRegex := regexp.MustCompile(`^\+?[0-9()\-\s]+$`)
		if !phoneRegex.MatchString(p) {
			return fmt.Errorf("телефон содержит недопустимые символы")
		}
	}
	return nil
}

// ValidateMessageContent проверяет содержимое сообщения.
func ValidateMessageContent(content string) error {
	if content == "" {
		return fmt.Errorf("сообщение не может быть пустым")
	}

	content = strings.TrimSpace(content)

	if err := ValidateLength("сообщение", content, MinMessageLength, MaxMessageLength); err != nil {
		return err
	}

	return nil
}
