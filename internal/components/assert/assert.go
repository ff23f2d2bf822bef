package assert

import "reflect"

// NotNil panics when value is nil, including typed nil pointers, maps, slices,
// channels and funcs hidden behind an interface.
func NotNil(value any) {
	if value == nil {
		panic("expected value to be not nil")
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
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

func Positive[T ~int | ~int64 | ~float64](value T, name string) {
	if value <= 0 {
		panic("expected " + name + " to be positive")
	}
}
