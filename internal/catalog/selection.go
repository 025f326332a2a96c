package catalog

// NoSelection is the index used when nothing can be selected.
const NoSelection = -1

// ClampSelection maps a previously selected image index onto a list that
// may have shrunk. It returns NoSelection and false for an empty list,
// otherwise an index in [0, length).
func ClampSelection(index, length int) (int, bool) {
	if length <= 0 {
		return NoSelection, false
	}
	if index < 0 {
		return 0, true
	}
	if index >= length {
		return length - 1, true
	}
	return index, true
}
