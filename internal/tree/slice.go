package tree

// splice inserts id into list at index clamped to [0, len] and returns the position used.
func splice(list *[]string, id string, index int) int {
	l := *list
	if index < 0 {
		index = 0
	}
	if index > len(l) {
		index = len(l)
	}
	l = append(l, "")
	copy(l[index+1:], l[index:])
	l[index] = id
	*list = l
	return index
}

// remove deletes id from list and returns its former index, or -1.
func remove(list *[]string, id string) int {
	i := indexOf(*list, id)
	if i < 0 {
		return -1
	}
	*list = append((*list)[:i], (*list)[i+1:]...)
	return i
}

func indexOf(list []string, id string) int {
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return -1
}
