package mockai

// catalog is the static set of models the mock server advertises.
// Created timestamps mirror the public API's published values.
var catalog = []Model{
	{ID: "gpt-4", Object: "model", Created: 1687882411, OwnedBy: "openai"},
	{ID: "gpt-4-turbo-preview", Object: "model", Created: 1706037777, OwnedBy: "openai"},
	{ID: "gpt-3.5-turbo", Object: "model", Created: 1677610602, OwnedBy: "openai"},
	{ID: "text-embedding-ada-002", Object: "model", Created: 1671217299, OwnedBy: "openai"},
	{ID: "dall-e-3", Object: "model", Created: 1698785189, OwnedBy: "openai"},
	{ID: "text-moderation-latest", Object: "model", Created: 1680870498, OwnedBy: "openai"},
}

// Models returns the full catalog.
func Models() ModelList {
	data := make([]Model, len(catalog))
	copy(data, catalog)
	return ModelList{Object: "list", Data: data}
}

// FindModel returns the catalog entry with the given id.
func FindModel(id string) (Model, bool) {
	for _, m := range catalog {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}
