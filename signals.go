package cubby

import "github.com/zoobzio/capitan"

// Signals for Drive operation lifecycle events.
var (
	ListCompleted      = newSignal("cubby.list.completed", "Folder listing succeeded", "list", false)
	ListFailed         = newSignal("cubby.list.failed", "Folder listing failed", "list", true)
	FolderCreated      = newSignal("cubby.folder.created", "Folder marker written", "create_folder", false)
	FolderCreateFailed = newSignal("cubby.folder.create_failed", "Folder marker write failed", "create_folder", true)
	FolderDeleted      = newSignal("cubby.folder.deleted", "Folder marker removed", "delete_folder", false)
	FolderDeleteFailed = newSignal("cubby.folder.delete_failed", "Folder marker removal failed", "delete_folder", true)
	UploadCompleted    = newSignal("cubby.upload.completed", "Object upload succeeded", "upload", false)
	UploadFailed       = newSignal("cubby.upload.failed", "Object upload failed", "upload", true)
	RenameCompleted    = newSignal("cubby.rename.completed", "Object rename succeeded", "rename", false)
	RenameFailed       = newSignal("cubby.rename.failed", "Object rename failed", "rename", true)
	MoveCompleted      = newSignal("cubby.move.completed", "Object move succeeded", "move", false)
	MoveFailed         = newSignal("cubby.move.failed", "Object move failed", "move", true)
	ObjectDuplicated   = newSignal("cubby.object.duplicated", "Copy succeeded but source removal failed", "duplicate", true)
	DeleteCompleted    = newSignal("cubby.delete.completed", "Object deletion succeeded", "delete", false)
	DeleteFailed       = newSignal("cubby.delete.failed", "Object deletion failed", "delete", true)
	StatCompleted      = newSignal("cubby.stat.completed", "Object metadata fetched", "stat", false)
	StatFailed         = newSignal("cubby.stat.failed", "Object metadata fetch failed", "stat", true)
	PresignCompleted   = newSignal("cubby.presign.completed", "Presigned URL issued", "presign", false)
	PresignFailed      = newSignal("cubby.presign.failed", "Presigned URL generation failed", "presign", true)
	OpenCompleted      = newSignal("cubby.open.completed", "Object opened for reading", "open", false)
	OpenFailed         = newSignal("cubby.open.failed", "Object open failed", "open", true)
)

// Field keys for event extraction.
var (
	FieldKey         = capitan.NewStringKey("key")
	FieldDestination = capitan.NewStringKey("destination")
	FieldPath        = capitan.NewStringKey("path")
	FieldMethod      = capitan.NewStringKey("method")
	FieldDuration    = capitan.NewDurationKey("duration")
	FieldError       = capitan.NewErrorKey("error")
	FieldSize        = capitan.NewInt64Key("size")
	FieldFolders     = capitan.NewIntKey("folders")
	FieldFiles       = capitan.NewIntKey("files")
)

// SignalInfo describes a Drive signal: the operation it reports on and
// whether it marks a failure.
type SignalInfo struct {
	Signal    capitan.Signal
	Name      string
	Operation string
	Failure   bool
}

// Signals lists every Drive signal in declaration order. Consumers
// (logging, metrics) range over it instead of hooking signals one by one.
var Signals []SignalInfo

func newSignal(name, description, operation string, failure bool) capitan.Signal {
	sig := capitan.NewSignal(name, description)
	Signals = append(Signals, SignalInfo{Signal: sig, Name: name, Operation: operation, Failure: failure})
	return sig
}

// LookupSignal returns the SignalInfo registered for sig.
func LookupSignal(sig capitan.Signal) (SignalInfo, bool) {
	for _, info := range Signals {
		if info.Signal == sig {
			return info, true
		}
	}
	return SignalInfo{}, false
}
