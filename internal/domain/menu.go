package domain

// MainMenu is a top-level sidebar section.
type MainMenu struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	SubMenus []SubMenu `json:"subMenus"`
}

// SubMenu is a sidebar entry that opens an entity card.
type SubMenu struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	ModuleKey string `json:"moduleKey"`
}

// CodeOption is one entry of a common-code group, used for select inputs.
type CodeOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
