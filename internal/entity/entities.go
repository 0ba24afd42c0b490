package entity

import "github.com/bcnelson/erp-console/internal/domain"

// BusinessPlace is the business-place code screen (w_hc01010). Searches
// accumulate and exports are gated on view.
func BusinessPlace() *Schema {
	return &Schema{
		Key:        "w_hc01010",
		Title:      "사업장 코드",
		PrimaryKey: "HC01010",
		Columns: []Column{
			{Field: "HC01010", Header: "코드", Width: 80},
			{Field: "HC01030", Header: "사업자등록번호", Width: 150},
			{Field: "HC01020", Header: "상호", Width: 200},
			{Field: "HC01040", Header: "대표자", Width: 100},
			{Field: "HC01100", Header: "업태", Width: 300},
			{Field: "HC01090", Header: "업종", Width: 300},
		},
		Fields: []Field{
			{Name: "HC01010", Label: "사업장코드", Required: true, MaxLen: 10},
			{Name: "HC01020", Label: "사업장명칭", Required: true, MaxLen: 100},
			{Name: "HC01030", Label: "사업자등록번호", Kind: KindBizNumber},
			{Name: "HC01040", Label: "대표자성명", MaxLen: 50},
			{Name: "HC01050", Label: "우편 번호", MaxLen: 7},
			{Name: "HC01060", Label: "사업장주소", MaxLen: 200},
			{Name: "HC01100", Label: "업태", MaxLen: 100},
			{Name: "HC01090", Label: "종목", MaxLen: 100},
			{Name: "HC01110", Label: "전화 번호", Kind: KindPhone},
			{Name: "HC01120", Label: "FAX 번호", Kind: KindPhone},
		},
		Conditions: []Condition{
			{Name: "businessPlace", Label: "사업장", Param: "sale11020_hc01010"},
		},
		Maps: Maps{
			Select: "cd01.cd01010_s",
			Insert: "cd01.cd01010_i",
			Update: "cd01.cd01010_u",
			Delete: "cd01.cd01010_d",
		},
		SearchPolicy:       SearchMerge,
		ExportCapability:   domain.CapView,
		DefaultPermissions: domain.Permissions{View: true, Add: true, Update: true},
	}
}

// TradingPartner is the trading-partner code screen (w_hc01110). Each
// search replaces the grid and exports are gated on print.
func TradingPartner() *Schema {
	return &Schema{
		Key:        "w_hc01110",
		Title:      "거래처 코드",
		PrimaryKey: "HC11010",
		Columns: []Column{
			{Field: "HC11010", Header: "코드", Width: 100},
			{Field: "HC11020", Header: "거래처명", Width: 300},
			{Field: "HC11030", Header: "사업자번호", Width: 150},
			{Field: "HC11040", Header: "대표자", Width: 100},
			{Field: "HC11070", Header: "담당자", Width: 100},
			{Field: "HC11210", Header: "전화번호", Width: 150},
		},
		Fields: []Field{
			{Name: "HC11010", Label: "코드", Required: true, MaxLen: 10},
			{Name: "HC11011", Label: "거래처구분", Kind: KindSelect, CodeGroup: "011", Required: true},
			{Name: "HC11020", Label: "거래처명", Required: true, MaxLen: 100},
			{Name: "HC11030", Label: "사업자No", Kind: KindBizNumber},
			{Name: "HC11040", Label: "대표자", MaxLen: 50},
			{Name: "HC11070", Label: "담당자", MaxLen: 50},
			{Name: "HC11210", Label: "전화번호", Kind: KindPhone},
		},
		Conditions: []Condition{
			{Name: "customerType", Label: "거래처구분", Param: "HC11011", Kind: CondSelect, Default: "1", CodeGroup: "011"},
			{Name: "dealName", Label: "거래처명", Param: "HC11020", Optional: true},
			{Name: "representative", Label: "대표자", Param: "HC11040", Optional: true},
		},
		Maps: Maps{
			Select: "cd01.cd01110_s",
			Insert: "cd01.cd01110_i",
			Update: "cd01.cd01110_u",
			Delete: "cd01.cd01110_d",
		},
		SearchPolicy:       SearchReplace,
		ExportCapability:   domain.CapPrint,
		DefaultPermissions: domain.AllPermissions(),
	}
}

// BankAccount is the bank-account code screen (w_ac01040). Discarded
// accounts are hidden unless the checkbox is ticked.
func BankAccount() *Schema {
	return &Schema{
		Key:        "w_ac01040",
		Title:      "계좌 코드",
		PrimaryKey: "F04010",
		Columns: []Column{
			{Field: "F04010", Header: "코드", Width: 100},
			{Field: "F04030", Header: "관리명칭", Width: 300},
			{Field: "F04020", Header: "번호", Width: 250},
			{Field: "F04100", Header: "개설일자", Width: 100},
			{Field: "F04110", Header: "만기일자", Width: 100},
			{Field: "F04120", Header: "폐기일자", Width: 100},
		},
		Fields: []Field{
			{Name: "F04010", Label: "코드", Required: true, MaxLen: 10},
			{Name: "F04020", Label: "계좌번호", Required: true, MaxLen: 50},
			{Name: "F04030", Label: "관리명칭", Required: true, MaxLen: 100},
			{Name: "F04040", Label: "은행", MaxLen: 50},
			{Name: "F04050", Label: "지점", MaxLen: 50},
			{Name: "F04060", Label: "예금주", MaxLen: 50},
			{Name: "F04090", Label: "용도", MaxLen: 100},
			{Name: "F04100", Label: "개설일자", Kind: KindDate},
			{Name: "F04110", Label: "만기일자", Kind: KindDate},
			{Name: "F04120", Label: "폐기일자", Kind: KindDate},
		},
		Conditions: []Condition{
			{Name: "includeDiscarded", Label: "폐기 포함", Param: "F04120", Kind: CondCheckbox, Unchecked: " "},
		},
		Maps: Maps{
			Select: "cd01.ac01040_s",
			Insert: "cd01.ac01040_i",
			Update: "cd01.ac01040_u",
			Delete: "cd01.ac01040_d",
		},
		SearchPolicy:       SearchMerge,
		ExportCapability:   domain.CapPrint,
		DefaultPermissions: domain.AllPermissions(),
	}
}

// StorageYard is the storage-yard code screen (w_hc01020). Editing
// re-fetches the full row because list rows carry a subset of fields.
func StorageYard() *Schema {
	return &Schema{
		Key:        "w_hc01020",
		Title:      "하치장 코드",
		PrimaryKey: "HC02010",
		Columns: []Column{
			{Field: "HC02010", Header: "코드", Width: 80},
			{Field: "HC02020", Header: "명칭", Width: 200},
			{Field: "HC02030", Header: "사업자번호", Width: 150},
			{Field: "HC02040", Header: "대표자", Width: 100},
			{Field: "HC02120", Header: "전화번호", Width: 150},
			{Field: "HC02140", Header: "FAX번호", Width: 150},
			{Field: "HC02080", Header: "주소", Width: 400},
		},
		Fields: []Field{
			{Name: "HC02010", Label: "하치장코드", Required: true, MaxLen: 10},
			{Name: "HC02020", Label: "하치장명칭", Required: true, MaxLen: 100},
			{Name: "HC02030", Label: "사업자번호", Kind: KindBizNumber},
			{Name: "HC02040", Label: "대표자성명", MaxLen: 50},
			{Name: "HC02060", Label: "우편 번호", MaxLen: 7},
			{Name: "HC02080", Label: "사업장주소", MaxLen: 200},
			{Name: "HC02090", Label: "업태", MaxLen: 100},
			{Name: "HC02100", Label: "종목", MaxLen: 100},
			{Name: "HC02120", Label: "전화 번호", Kind: KindPhone},
			{Name: "HC02140", Label: "FAX 번호", Kind: KindPhone},
		},
		Conditions: []Condition{
			{Name: "code", Label: "코드", Param: "HC02010"},
		},
		Maps: Maps{
			Select: "cd01.cd01020_s",
			Detail: "cd01.cd01020_s1",
			Insert: "cd01.cd01020_i",
			Update: "cd01.cd01020_u",
			Delete: "cd01.cd01020_d",
		},
		SearchPolicy:       SearchMerge,
		ExportCapability:   domain.CapPrint,
		DefaultPermissions: domain.AllPermissions(),
	}
}
