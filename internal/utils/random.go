package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/biharilibrary/library-manager/backend/internal/billing"
	"github.com/biharilibrary/library-manager/backend/internal/domain"
	"github.com/biharilibrary/library-manager/backend/internal/pricing"
)

var commonFirstNames = []string{
	"Aarav", "Vivek", "Rohit", "Amit", "Rahul", "Sandeep", "Manish", "Ankit", "Saurabh", "Vikash",
	"Priya", "Anjali", "Neha", "Pooja", "Kajal", "Sneha", "Ritu", "Nisha", "Khushi", "Shreya",
}
var commonSurnames = []string{
	"Kumar", "Singh", "Yadav", "Prasad", "Jha", "Mishra", "Sharma", "Gupta", "Paswan", "Sinha",
}
var genders = []string{"Male", "Female"}

func GenerateRandomName() string {
	return commonFirstNames[rand.Intn(len(commonFirstNames))] + " " + commonSurnames[rand.Intn(len(commonSurnames))]
}

var digits = "0123456789"

// GenerateRandomMobile 生成以 6-9 开头的 10 位手机号
func GenerateRandomMobile() string {
	mobile := make([]byte, 10)
	mobile[0] = "6789"[rand.Intn(4)]
	for i := 1; i < len(mobile); i++ {
		mobile[i] = digits[rand.Intn(len(digits))]
	}
	return string(mobile)
}

// GenerateRandomStudent 随机生成一个学生，时段从价格表中选择，座位由调用方分配
func GenerateRandomStudent(emailDomainName string, now time.Time, cycleMonths int) *domain.Student {
	slots := pricing.Table()
	slot := slots[rand.Intn(len(slots))]

	name := GenerateRandomName()
	father := commonFirstNames[rand.Intn(10)] + " " + strings.Fields(name)[1]
	admission := now.AddDate(0, 0, -rand.Intn(60)).Truncate(24 * time.Hour)

	return &domain.Student{
		Name:          name,
		Email:         strings.ToLower(strings.ReplaceAll(name, " ", ".")) + GenerateRandomID(0, 3) + "@" + emailDomainName,
		Mobile:        GenerateRandomMobile(),
		Father:        father,
		Gender:        genders[rand.Intn(len(genders))],
		AdmissionDate: admission,
		Shift:         slot.Shift,
		Time:          slot.TimeSlot,
		PaymentAmount: slot.Amount,
		SeatShift:     slot.SeatShift,
		NextPayment:   billing.FirstNextPayment(admission, nil, cycleMonths),
		Status:        domain.StudentStatusActive,
	}
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(52)]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

// 使用 Fisher-Yates 洗牌算法打乱座位号，使随机学生分散在各个座位上
func ShuffleSeats(seats []string) []string {
	seatsCopy := append([]string{}, seats...) // 复制数组，避免修改原数组

	for i := len(seatsCopy) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		seatsCopy[i], seatsCopy[j] = seatsCopy[j], seatsCopy[i]
	}

	return seatsCopy
}
