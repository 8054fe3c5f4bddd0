package resolver

// DigestFromTx returns the top-level transaction digest, if any.
func DigestFromTx(result any) string {
	s, _ := Lookup(result, "digest").(string)
	return s
}

// ControlIDFromTx locates the control object created by a transaction result.
// It checks effects.created, then objectChanges, then falls back to FindObjectID.
func ControlIDFromTx(result any, marker string) (string, bool) {
	if created, ok := Lookup(result, "effects", "created").([]any); ok {
		for _, c := range created {
			typ, _ := firstPresent(asMap(c), "type").(string)
			if typ == "" {
				typ, _ = Lookup(c, "reference", "type").(string)
			}
			if !IsControlType(typ, marker) {
				continue
			}
			if id, ok := Lookup(c, "reference", "objectId").(string); ok && id != "" {
				return id, true
			}
			if id, ok := Lookup(c, "objectId").(string); ok && id != "" {
				return id, true
			}
			break
		}
	}

	if changes, ok := Lookup(result, "objectChanges").([]any); ok {
		for _, ch := range changes {
			m := asMap(ch)
			kind, _ := firstPresent(m, "type", "kind").(string)
			objType, _ := firstPresent(m, "objectType", "type").(string)
			if (kind == "created" || kind == "Created") && IsControlType(objType, marker) {
				if id, ok := m["objectId"].(string); ok && id != "" {
					return id, true
				}
				break
			}
		}
	}

	return FindObjectID(result)
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
