package utils

func Map[T1, T2 any](slice []T1, f func(T1) T2) []T2 {
	if slice == nil {
		return nil
	}

	result := make([]T2, len(slice))
	for i, e := range slice {
		result[i] = f(e)
	}

	return result
}

// MapErr is Map for fallible conversions. It stops at the first error and
// returns it together with the index of the offending element.
func MapErr[T1, T2 any](slice []T1, f func(T1) (T2, error)) ([]T2, int, error) {
	if slice == nil {
		return nil, 0, nil
	}

	result := make([]T2, len(slice))
	for i, e := range slice {
		var err error
		if result[i], err = f(e); err != nil {
			return nil, i, err
		}
	}

	return result, 0, nil
}
