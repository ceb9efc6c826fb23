package drag

// Splice moves src next to target with list-splice semantics: if src came
// before target it lands after it, otherwise before it. Unknown ids leave
// the order unchanged.
func Splice(order []int64, src, target int64) []int64 {
	out := append([]int64{}, order...)
	si, ti := indexOf(out, src), indexOf(out, target)
	if si < 0 || ti < 0 || si == ti {
		return out
	}
	out = append(out[:si], out[si+1:]...)
	at := indexOf(out, target)
	if si < ti {
		at++
	}
	out = append(out, 0)
	copy(out[at+1:], out[at:])
	out[at] = src
	return out
}

func indexOf(ids []int64, id int64) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
