package domain

// NoticeKind says how a notice is presented.
type NoticeKind string

const (
	// NoticeInline replaces the grid with an error line.
	NoticeInline NoticeKind = "inline"
	// NoticeBlocking is an alert the user must dismiss.
	NoticeBlocking NoticeKind = "blocking"
	// NoticeInfo is a transient confirmation.
	NoticeInfo NoticeKind = "info"
)

// Message identifiers resolved by the i18n bundle.
const (
	MsgDeniedView     = "Notice.Denied.View"
	MsgDeniedAdd      = "Notice.Denied.Add"
	MsgDeniedUpdate   = "Notice.Denied.Update"
	MsgDeniedDelete   = "Notice.Denied.Delete"
	MsgDeniedPrint    = "Notice.Denied.Print"
	MsgDeniedDownload = "Notice.Denied.Download"

	MsgSelectForEdit   = "Notice.Select.Edit"
	MsgSelectForDelete = "Notice.Select.Delete"
	MsgSelectMenu      = "Notice.Select.Menu"
	MsgConfirmDelete   = "Notice.Confirm.Delete"

	MsgSearchFailed  = "Notice.Search.Failed"
	MsgInvalidFormat = "Notice.Search.InvalidFormat"
	MsgUpdateFailed  = "Notice.Save.UpdateFailed"
	MsgInsertFailed  = "Notice.Save.InsertFailed"
	MsgDeleteFailed  = "Notice.Delete.Failed"
	MsgSaved         = "Notice.Save.Done"
	MsgDeleted       = "Notice.Delete.Done"
	MsgNoChanges     = "Notice.Save.NoChanges"
	MsgInvalidRecord = "Notice.Save.Invalid"
	MsgExportFailed  = "Notice.Export.Failed"
	MsgLoginFailed   = "Notice.Login.Failed"
)

// Notice is a user-visible message produced by a card or the shell.
type Notice struct {
	Kind      NoticeKind     `json:"kind"`
	MessageID string         `json:"messageId"`
	Data      map[string]any `json:"data,omitempty"`
	Detail    string         `json:"detail,omitempty"`
}

// Blocking builds a blocking notice.
func Blocking(id string) *Notice {
	return &Notice{Kind: NoticeBlocking, MessageID: id}
}

// Inline builds an inline notice carrying the failure detail.
func Inline(id, detail string) *Notice {
	return &Notice{Kind: NoticeInline, MessageID: id, Detail: detail}
}

// Info builds a transient notice.
func Info(id string) *Notice {
	return &Notice{Kind: NoticeInfo, MessageID: id}
}
