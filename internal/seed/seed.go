package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/biharilibrary/library-manager/backend/internal/billing"
	"github.com/biharilibrary/library-manager/backend/internal/domain"
	"github.com/biharilibrary/library-manager/backend/internal/pricing"
	"github.com/biharilibrary/library-manager/backend/internal/repository"
	"github.com/biharilibrary/library-manager/backend/internal/utils"
)

// 导出文件中必须存在的列，其余列可选
var requiredHeaders = []string{"name", "mobile", "admissiondate", "shift", "time"}

// RowError 记录 CSV 中无法导入的行，Line 从 1 开始并包含表头
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("第 %d 行: %v", e.Line, e.Err)
}

// ParseStudentsCSV 解析旧系统导出的学生表，时间段会被规范化为价格表中的写法
func ParseStudentsCSV(r io.Reader, cycleMonths int) ([]*domain.Student, []RowError, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("读取表头失败: %w", err)
	}

	index := make(map[string]int, len(headers))
	for i, header := range headers {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))] = i
	}
	for _, header := range requiredHeaders {
		if _, ok := index[header]; !ok {
			return nil, nil, fmt.Errorf("缺少列 %s", header)
		}
	}

	students := make([]*domain.Student, 0)
	rowErrors := make([]RowError, 0)

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			rowErrors = append(rowErrors, RowError{Line: line, Err: err})
			continue
		}

		get := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		student, err := parseStudent(get, cycleMonths)
		if err != nil {
			rowErrors = append(rowErrors, RowError{Line: line, Err: err})
			continue
		}
		students = append(students, student)
	}

	return students, rowErrors, nil
}

func parseStudent(get func(string) string, cycleMonths int) (*domain.Student, error) {
	name := get("name")
	if name == "" {
		return nil, errors.New("姓名为空")
	}

	if !utils.ValidateMobile(get("mobile")) {
		return nil, fmt.Errorf("手机号 %q 格式错误", get("mobile"))
	}

	shift, ok := pricing.ParseShift(get("shift"))
	if !ok {
		return nil, fmt.Errorf("未知班次 %q", get("shift"))
	}

	timeSlot, res := pricing.ResolveStored(shift, get("time"))
	if res.SeatShift == pricing.SeatShiftNone {
		return nil, fmt.Errorf("时间段 %q 不属于班次 %s", get("time"), shift)
	}

	admissionDate, err := utils.ParseDate(get("admissiondate"))
	if err != nil {
		return nil, err
	}

	var lastPayment *time.Time
	if s := get("lastpayment"); s != "" {
		t, err := utils.ParseDate(s)
		if err != nil {
			return nil, err
		}
		lastPayment = &t
	}

	nextPayment := billing.FirstNextPayment(admissionDate, lastPayment, cycleMonths)
	if s := get("nextpayment"); s != "" {
		if nextPayment, err = utils.ParseDate(s); err != nil {
			return nil, err
		}
	}

	var paymentDue int64
	if s := get("paymentdue"); s != "" {
		if paymentDue, err = strconv.ParseInt(s, 10, 64); err != nil {
			return nil, fmt.Errorf("欠费金额 %q 格式错误", s)
		}
	}

	status := domain.StudentStatusActive
	if s := get("status"); s != "" {
		switch domain.StudentStatus(s) {
		case domain.StudentStatusActive, domain.StudentStatusPending, domain.StudentStatusInactive:
			status = domain.StudentStatus(s)
		default:
			return nil, fmt.Errorf("未知状态 %q", s)
		}
	}

	return &domain.Student{
		Name:          name,
		Email:         strings.ToLower(get("email")),
		Mobile:        utils.NormalizeMobile(get("mobile")),
		Father:        get("father"),
		Guardian:      get("guardian"),
		Gender:        get("gender"),
		AdmissionDate: admissionDate,
		Shift:         shift,
		Time:          timeSlot,
		PaymentAmount: res.Amount,
		Address:       get("address"),
		SeatNumber:    get("seatnumber"),
		SeatShift:     res.SeatShift,
		LastPayment:   lastPayment,
		NextPayment:   nextPayment,
		PaymentDue:    paymentDue,
		Status:        status,
	}, nil
}

type StudentCreator interface {
	CreateStudent(student *domain.Student) error
}

// ImportStudents 逐个写入学生，座位冲突或者座位不存在的行会被跳过
func ImportStudents(repo StudentCreator, students []*domain.Student) (int, error) {
	created := 0
	for _, student := range students {
		if err := repo.CreateStudent(student); err != nil {
			switch {
			case errors.Is(err, repository.ErrSeatOccupied), errors.Is(err, repository.ErrSeatNotFound):
				slog.Warn("跳过学生", "name", student.Name, "seat", student.SeatNumber, "seatShift", student.SeatShift, "reason", err)
				continue
			default:
				return created, fmt.Errorf("写入学生 %s 失败: %w", student.Name, err)
			}
		}
		created++
	}

	return created, nil
}
