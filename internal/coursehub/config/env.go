// Чтение переменных окружения и приведение их значений к типам полей Config.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// lookupEnv возвращает значение переменной окружения. Пустое значение считается незаданным.
func lookupEnv(key string) (string, bool) {
	val, ok := os.LookupEnv(key)
	val = strings.TrimSpace(val)
	return val, ok && val != ""
}

// setField записывает значение переменной key в поле с приведением к типу поля.
func setField(field reflect.Value, key string, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", key, raw)
		}
		field.SetInt(int64(v))
	case reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%s: %q is not a boolean", key, raw)
		}
		field.SetBool(v)
	default:
		return fmt.Errorf("%s: unsupported field kind %s", key, field.Kind())
	}
	return nil
}
