// Package patch применяет частичные JSON-обновления к документу.
package patch

import "encoding/json"

// Merge накатывает src на dst: объекты сливаются рекурсивно,
// массивы и скаляры заменяются целиком, null в src удаляет ключ.
// dst не изменяется.
func Merge(dst, src map[string]any) map[string]any {
	out := clone(dst)
	if out == nil {
		out = map[string]any{}
	}
	for k, v := range src {
		if v == nil {
			delete(out, k)
			continue
		}
		if sm, ok := v.(map[string]any); ok {
			if dm, ok := out[k].(map[string]any); ok {
				out[k] = Merge(dm, sm)
				continue
			}
			out[k] = Merge(nil, sm)
			continue
		}
		out[k] = v
	}
	return out
}

// MergeJSON — Merge над сырыми JSON-объектами. Пустой doc — пустой объект.
func MergeJSON(doc, p []byte) ([]byte, error) {
	var dst, src map[string]any
	if len(doc) > 0 {
		if err := json.Unmarshal(doc, &dst); err != nil {
			return nil, err
		}
	}
	if err := json.Unmarshal(p, &src); err != nil {
		return nil, err
	}
	return json.Marshal(Merge(dst, src))
}

func clone(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if mm, ok := v.(map[string]any); ok {
			out[k] = clone(mm)
			continue
		}
		out[k] = v
	}
	return out
}
