package workorder

// Built-in fallback checklist used when no default template is
// configured. Matches the seed template shipped with the plant database.
var builtinTemplateItems = []TemplateItem{
	{Name: "Área o máquina recogida", IsRequired: true, Ordinal: 1},
	{Name: "Orden y limpieza", IsRequired: true, Ordinal: 2},
}

// IsChecklistComplete returns true iff every required item is checked.
// Optional items never block completion. An empty checklist is complete.
func IsChecklistComplete(items []ChecklistItem) bool {
	for _, item := range items {
		if item.IsRequired && !item.Checked {
			return false
		}
	}
	return true
}

// FirstIncompleteItem returns the first required item that is not yet
// checked, or nil when the checklist is complete.
func FirstIncompleteItem(items []ChecklistItem) *ChecklistItem {
	for i := range items {
		if items[i].IsRequired && !items[i].Checked {
			return &items[i]
		}
	}
	return nil
}

// ValidateRemoveItem checks whether the item with the given ID may be
// removed from the checklist. Required items cannot be removed.
func ValidateRemoveItem(items []ChecklistItem, itemID string) error {
	for _, item := range items {
		if item.ID == itemID {
			if item.IsRequired {
				return NewCannotRemoveRequiredError(item.Name)
			}
			return nil
		}
	}
	return nil
}

// RemoveItem returns the checklist with the given item removed. It
// returns CannotRemoveRequired when the item is required.
func RemoveItem(items []ChecklistItem, itemID string) ([]ChecklistItem, error) {
	if err := ValidateRemoveItem(items, itemID); err != nil {
		return nil, err
	}
	out := make([]ChecklistItem, 0, len(items))
	for _, item := range items {
		if item.ID != itemID {
			out = append(out, item)
		}
	}
	return out, nil
}

// AddItem appends a new item to the checklist. Addition is always
// permitted; the item receives the next display ordinal.
func AddItem(items []ChecklistItem, name string, required bool, ids IDGenerator) []ChecklistItem {
	next := 0
	for _, item := range items {
		if item.Ordinal > next {
			next = item.Ordinal
		}
	}
	return append(items, ChecklistItem{
		ID:         ids.NewID(),
		Name:       name,
		IsRequired: required,
		Checked:    false,
		Ordinal:    next + 1,
	})
}

// ChecklistFromTemplate materializes a fresh checklist from template
// items: same names, required flags, and ordering, all unchecked, with
// fresh item IDs.
func ChecklistFromTemplate(items []TemplateItem, ids IDGenerator) []ChecklistItem {
	out := make([]ChecklistItem, 0, len(items))
	for _, item := range items {
		out = append(out, ChecklistItem{
			ID:         ids.NewID(),
			Name:       item.Name,
			IsRequired: item.IsRequired,
			Checked:    false,
			Ordinal:    item.Ordinal,
		})
	}
	return out
}

// ResetChecklist builds a fresh all-unchecked checklist carrying the
// names, required flags, and ordering of the given items, with fresh
// IDs. Used to seed a recurrence successor from the closing instance.
func ResetChecklist(items []ChecklistItem, ids IDGenerator) []ChecklistItem {
	out := make([]ChecklistItem, 0, len(items))
	for _, item := range items {
		out = append(out, ChecklistItem{
			ID:         ids.NewID(),
			Name:       item.Name,
			IsRequired: item.IsRequired,
			Checked:    false,
			Ordinal:    item.Ordinal,
		})
	}
	return out
}

// BuiltinTemplateItems returns a copy of the built-in template items,
// for seeding a template store.
func BuiltinTemplateItems() []TemplateItem {
	out := make([]TemplateItem, len(builtinTemplateItems))
	copy(out, builtinTemplateItems)
	return out
}

// DefaultChecklist resolves the checklist for a new preventive order:
// the configured default template when available, the built-in two-item
// template otherwise. A failing or absent template source degrades to
// the built-in items rather than aborting order creation.
func DefaultChecklist(source TemplateSource, ids IDGenerator) []ChecklistItem {
	if source != nil {
		if tpl, err := source.DefaultTemplate(); err == nil && tpl != nil && len(tpl.Items) > 0 {
			return ChecklistFromTemplate(tpl.Items, ids)
		}
	}
	return ChecklistFromTemplate(builtinTemplateItems, ids)
}
