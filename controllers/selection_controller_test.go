package controllers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/thesis-selection-backend/models"
)

func selectTopic(r *gin.Engine, token, topicID string) *httptest.ResponseRecorder {
	return doJSON(r, http.MethodPost, "/api/student/topics/select", token, map[string]string{"topic_id": topicID})
}

func TestSelectTopic(t *testing.T) {
	r, db := setupRouter(t)

	teacher := createTeacher(t, db, "gv1")
	student := createStudent(t, db, "sv1", "SV001")
	topic := createTopic(t, db, teacher.ID, 2, time.Now().Add(24*time.Hour))

	w := selectTopic(r, tokenFor(t, student), topic.ID.String())
	if w.Code != http.StatusOK {
		t.Fatalf("đăng ký thất bại: code=%d body=%s", w.Code, w.Body.String())
	}

	var topicAfter models.Topic
	db.First(&topicAfter, "id = ?", topic.ID)
	if topicAfter.SelectedCount != 1 {
		t.Fatalf("selected_count = %d, muốn 1", topicAfter.SelectedCount)
	}

	var selection models.TopicSelection
	if err := db.First(&selection, "topic_id = ? AND student_id = ?", topic.ID, student.ID).Error; err != nil {
		t.Fatalf("không thấy bản ghi selection: %v", err)
	}
	if selection.Status != models.SelectionPending {
		t.Fatalf("status = %s, muốn pending", selection.Status)
	}

	assertCounterConsistent(t, db, topic.ID)
}

func TestSelectTopicNotFound(t *testing.T) {
	r, db := setupRouter(t)

	student := createStudent(t, db, "sv1", "SV001")
	w := selectTopic(r, tokenFor(t, student), "3e8e7b9a-0000-0000-0000-000000000001")
	if w.Code != http.StatusNotFound {
		t.Fatalf("code = %d, muốn 404", w.Code)
	}
}

func TestSelectTopicClosed(t *testing.T) {
	r, db := setupRouter(t)

	teacher := createTeacher(t, db, "gv1")
	student := createStudent(t, db, "sv1", "SV001")
	topic := createTopic(t, db, teacher.ID, 1, time.Now().Add(24*time.Hour))
	db.Model(&topic).Update("status", models.TopicClosed)

	w := selectTopic(r, tokenFor(t, student), topic.ID.String())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, muốn 400", w.Code)
	}
	assertCounterConsistent(t, db, topic.ID)
}

func TestSelectTopicDeadlinePassed(t *testing.T) {
	r, db := setupRouter(t)

	teacher := createTeacher(t, db, "gv1")
	student := createStudent(t, db, "sv1", "SV001")
	topic := createTopic(t, db, teacher.ID, 1, time.Now().Add(-time.Hour))

	w := selectTopic(r, tokenFor(t, student), topic.ID.String())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, muốn 400", w.Code)
	}
}

// Sinh viên chỉ được giữ 1 đăng ký active trên toàn hệ thống
func TestSelectTopicDuplicateActive(t *testing.T) {
	r, db := setupRouter(t)

	teacher := createTeacher(t, db, "gv1")
	student := createStudent(t, db, "sv1", "SV001")
	topic1 := createTopic(t, db, teacher.ID, 1, time.Now().Add(24*time.Hour))
	topic2 := createTopic(t, db, teacher.ID, 1, time.Now().Add(24*time.Hour))

	token := tokenFor(t, student)
	if w := selectTopic(r, token, topic1.ID.String()); w.Code != http.StatusOK {
		t.Fatalf("đăng ký lần 1 thất bại: %s", w.Body.String())
	}
	if w := selectTopic(r, token, topic2.ID.String()); w.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, muốn 400 khi đã có đăng ký active", w.Code)
	}

	assertCounterConsistent(t, db, topic1.ID)
	assertCounterConsistent(t, db, topic2.ID)
}

// Kịch bản sức chứa: maxStudents=1, A chọn, B bị từ chối,
// A huỷ thì B chọn được
func TestCapacityRoundTrip(t *testing.T) {
	r, db := setupRouter(t)

	teacher := createTeacher(t, db, "gv1")
	a := createStudent(t, db, "sva", "SV001")
	b := createStudent(t, db, "svb", "SV002")
	topic := createTopic(t, db, teacher.ID, 1, time.Now().Add(24*time.Hour))

	tokenA := tokenFor(t, a)
	tokenB := tokenFor(t, b)

	if w := selectTopic(r, tokenA, topic.ID.String()); w.Code != http.StatusOK {
		t.Fatalf("A đăng ký thất bại: %s", w.Body.String())
	}

	// B chọn đề tài đã đầy -> lỗi sức chứa
	w := selectTopic(r, tokenB, topic.ID.String())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, muốn 400 khi đề tài đã đầy", w.Code)
	}

	var topicAfter models.Topic
	db.First(&topicAfter, "id = ?", topic.ID)
	if topicAfter.SelectedCount != 1 {
		t.Fatalf("selected_count = %d, muốn vẫn là 1", topicAfter.SelectedCount)
	}

	// A huỷ -> chỗ được trả lại
	if w := doJSON(r, http.MethodDelete, "/api/student/topics/cancel", tokenA, nil); w.Code != http.StatusOK {
		t.Fatalf("A huỷ thất bại: %s", w.Body.String())
	}
	db.First(&topicAfter, "id = ?", topic.ID)
	if topicAfter.SelectedCount != 0 {
		t.Fatalf("selected_count = %d sau huỷ, muốn 0", topicAfter.SelectedCount)
	}

	// B chọn lại -> thành công
	if w := selectTopic(r, tokenB, topic.ID.String()); w.Code != http.StatusOK {
		t.Fatalf("B đăng ký sau khi A huỷ thất bại: %s", w.Body.String())
	}
	db.First(&topicAfter, "id = ?", topic.ID)
	if topicAfter.SelectedCount != 1 {
		t.Fatalf("selected_count = %d, muốn 1", topicAfter.SelectedCount)
	}

	assertCounterConsistent(t, db, topic.ID)
}

func TestCancelWithoutSelection(t *testing.T) {
	r, db := setupRouter(t)

	student := createStudent(t, db, "sv1", "SV001")
	w := doJSON(r, http.MethodDelete, "/api/student/topics/cancel", tokenFor(t, student), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("code = %d, muốn 404", w.Code)
	}
}

// Duyệt/từ chối không thay đổi selected_count: chỗ chỉ được trả khi sinh viên huỷ
func TestReviewKeepsCapacity(t *testing.T) {
	r, db := setupRouter(t)

	teacher := createTeacher(t, db, "gv1")
	student := createStudent(t, db, "sv1", "SV001")
	topic := createTopic(t, db, teacher.ID, 1, time.Now().Add(24*time.Hour))

	if w := selectTopic(r, tokenFor(t, student), topic.ID.String()); w.Code != http.StatusOK {
		t.Fatalf("đăng ký thất bại: %s", w.Body.String())
	}

	var selection models.TopicSelection
	db.First(&selection, "topic_id = ? AND student_id = ?", topic.ID, student.ID)

	w := doJSON(r, http.MethodPut, "/api/teacher/selections/"+selection.ID.String(), tokenFor(t, teacher),
		map[string]string{"status": "rejected", "feedback": "Chưa phù hợp hướng nghiên cứu"})
	if w.Code != http.StatusOK {
		t.Fatalf("duyệt thất bại: %s", w.Body.String())
	}

	var topicAfter models.Topic
	db.First(&topicAfter, "id = ?", topic.ID)
	if topicAfter.SelectedCount != 1 {
		t.Fatalf("selected_count = %d sau khi từ chối, muốn vẫn là 1", topicAfter.SelectedCount)
	}

	db.First(&selection, "id = ?", selection.ID)
	if selection.Status != models.SelectionRejected {
		t.Fatalf("status = %s, muốn rejected", selection.Status)
	}
	if selection.Feedback == "" {
		t.Fatal("feedback không được lưu")
	}
}

func TestReviewApprovedSetsApprovedAt(t *testing.T) {
	r, db := setupRouter(t)

	teacher := createTeacher(t, db, "gv1")
	student := createStudent(t, db, "sv1", "SV001")
	topic := createTopic(t, db, teacher.ID, 1, time.Now().Add(24*time.Hour))

	if w := selectTopic(r, tokenFor(t, student), topic.ID.String()); w.Code != http.StatusOK {
		t.Fatalf("đăng ký thất bại: %s", w.Body.String())
	}

	var selection models.TopicSelection
	db.First(&selection, "topic_id = ?", topic.ID)

	w := doJSON(r, http.MethodPut,
		"/api/teacher/topics/"+topic.ID.String()+"/selections/"+student.ID.String(),
		tokenFor(t, teacher), map[string]string{"status": "approved"})
	if w.Code != http.StatusOK {
		t.Fatalf("duyệt thất bại: %s", w.Body.String())
	}

	db.First(&selection, "id = ?", selection.ID)
	if selection.Status != models.SelectionApproved {
		t.Fatalf("status = %s, muốn approved", selection.Status)
	}
	if selection.ApprovedAt == nil {
		t.Fatal("approved_at chưa được ghi")
	}
}

// Không duyệt lại được selection đã rejected (không có đường ra khỏi rejected)
func TestReviewOnlyPending(t *testing.T) {
	r, db := setupRouter(t)

	teacher := createTeacher(t, db, "gv1")
	student := createStudent(t, db, "sv1", "SV001")
	topic := createTopic(t, db, teacher.ID, 1, time.Now().Add(24*time.Hour))

	if w := selectTopic(r, tokenFor(t, student), topic.ID.String()); w.Code != http.StatusOK {
		t.Fatalf("đăng ký thất bại: %s", w.Body.String())
	}

	var selection models.TopicSelection
	db.First(&selection, "topic_id = ?", topic.ID)

	token := tokenFor(t, teacher)
	path := "/api/teacher/selections/" + selection.ID.String()
	if w := doJSON(r, http.MethodPut, path, token, map[string]string{"status": "rejected"}); w.Code != http.StatusOK {
		t.Fatalf("từ chối thất bại: %s", w.Body.String())
	}
	if w := doJSON(r, http.MethodPut, path, token, map[string]string{"status": "approved"}); w.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, muốn 400 khi duyệt lại selection đã rejected", w.Code)
	}
}

// Giảng viên khác không duyệt được selection không thuộc đề tài của mình
func TestReviewRequiresOwnership(t *testing.T) {
	r, db := setupRouter(t)

	owner := createTeacher(t, db, "gv1")
	other := createTeacher(t, db, "gv2")
	student := createStudent(t, db, "sv1", "SV001")
	topic := createTopic(t, db, owner.ID, 1, time.Now().Add(24*time.Hour))

	if w := selectTopic(r, tokenFor(t, student), topic.ID.String()); w.Code != http.StatusOK {
		t.Fatalf("đăng ký thất bại: %s", w.Body.String())
	}

	var selection models.TopicSelection
	db.First(&selection, "topic_id = ?", topic.ID)

	w := doJSON(r, http.MethodPut, "/api/teacher/selections/"+selection.ID.String(),
		tokenFor(t, other), map[string]string{"status": "approved"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("code = %d, muốn 404 với giảng viên không sở hữu đề tài", w.Code)
	}
}

func TestAvailableTopicsFilter(t *testing.T) {
	r, db := setupRouter(t)

	teacher := createTeacher(t, db, "gv1")
	student := createStudent(t, db, "sv1", "SV001")

	open := createTopic(t, db, teacher.ID, 1, time.Now().Add(24*time.Hour))
	expired := createTopic(t, db, teacher.ID, 1, time.Now().Add(-time.Hour))
	closed := createTopic(t, db, teacher.ID, 1, time.Now().Add(24*time.Hour))
	db.Model(&closed).Update("status", models.TopicClosed)
	full := createTopic(t, db, teacher.ID, 1, time.Now().Add(24*time.Hour))
	db.Model(&full).Update("selected_count", 1)

	w := doJSON(r, http.MethodGet, "/api/student/topics/available", tokenFor(t, student), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].ID != open.ID.String() {
		t.Fatalf("danh sách khả dụng sai: %s (đề tài hết hạn %s, đã đóng %s và đã đầy %s phải bị loại)",
			w.Body.String(), expired.ID, closed.ID, full.ID)
	}
}

// Route sinh viên chặn giảng viên và ngược lại
func TestRoleGuards(t *testing.T) {
	r, db := setupRouter(t)

	teacher := createTeacher(t, db, "gv1")
	student := createStudent(t, db, "sv1", "SV001")

	if w := doJSON(r, http.MethodGet, "/api/student/topics/available", tokenFor(t, teacher), nil); w.Code != http.StatusForbidden {
		t.Fatalf("code = %d, muốn 403 khi giảng viên gọi route sinh viên", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/api/teacher/topics", tokenFor(t, student), nil); w.Code != http.StatusForbidden {
		t.Fatalf("code = %d, muốn 403 khi sinh viên gọi route giảng viên", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/api/teacher/topics", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, muốn 401 khi thiếu token", w.Code)
	}
}
