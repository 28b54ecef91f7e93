package models

// User-facing Vietnamese messages surfaced through the sync status and the
// API envelope.
const (
	MsgFetchFailed   = "Không thể tải danh sách bệnh nhân"
	MsgAddFailed     = "Không thể thêm bệnh nhân mới"
	MsgUpdateFailed  = "Không thể cập nhật thông tin bệnh nhân"
	MsgDeleteFailed  = "Không thể xóa bệnh nhân"
	MsgNetworkError  = "Lỗi kết nối mạng. Vui lòng kiểm tra kết nối internet."
	MsgServerError   = "Lỗi máy chủ. Vui lòng thử lại sau."
	MsgUnknownError  = "Đã xảy ra lỗi không xác định."
	MsgInvalidData   = "Dữ liệu không hợp lệ. Vui lòng kiểm tra lại thông tin."
	MsgImportInvalid = "Không thể đọc file. Vui lòng kiểm tra định dạng file."
	MsgBackupInvalid = "File backup không hợp lệ."
	MsgNotFound      = "Không tìm thấy bệnh nhân"

	MsgPatientAdded   = "Thêm bệnh nhân thành công"
	MsgPatientUpdated = "Cập nhật thông tin bệnh nhân thành công"
	MsgPatientDeleted = "Xóa bệnh nhân thành công"
	MsgDataSynced     = "Đồng bộ dữ liệu thành công"
	MsgSavedOffline   = "Đã lưu thay đổi offline. Sẽ đồng bộ khi có kết nối mạng."
)
