package assert

import "reflect"

// NotNil panics when value is nil, including typed nil pointers and
// interfaces holding them.
func NotNil(value any) {
	if value == nil {
		panic("expected value to be not nil")
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		if v.IsNil() {
			panic("expected value to be not nil")
		}
	}
}

func NotEmptyStr(str string) {
	if str == "" {
		panic("expected string to be non-empty")
	}
}

// Positive panics when n is not greater than zero.
func Positive(n int) {
	if n <= 0 {
		panic("expected number to be positive")
	}
}
