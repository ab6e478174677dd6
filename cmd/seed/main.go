package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/biharilibrary/library-manager/backend/internal/config"
	"github.com/biharilibrary/library-manager/backend/internal/domain"
	"github.com/biharilibrary/library-manager/backend/internal/repository"
	"github.com/biharilibrary/library-manager/backend/internal/seed"
	"github.com/biharilibrary/library-manager/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	var op int
	var n int
	var file string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入座位, 2: 插入随机学生, 3: 从 CSV 导入学生, 4: 插入随机前台账户)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.StringVar(&file, "file", "", "要导入的 CSV 文件路径")
	flag.Parse()

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	// 创建数据库连接池
	dbpool, err := repository.OpenDB(cfg)
	if err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}
	defer dbpool.Close()

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的座位数量")
			return
		}

		seatNumbers := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			seatNumbers = append(seatNumbers, strconv.Itoa(i))
		}

		created, err := repo.CreateSeats(seatNumbers)
		if err != nil {
			slog.Error("无法插入座位", slog.String("error", err.Error()))
			return
		}

		slog.Info("插入座位成功", slog.Int("count", created))
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的学生数量")
			return
		}

		seats, err := repo.GetAllSeats()
		if err != nil {
			slog.Error("无法获取座位", slog.String("error", err.Error()))
			return
		}
		seatNumbers := make([]string, 0, len(seats))
		for _, seat := range seats {
			seatNumbers = append(seatNumbers, seat.SeatNumber)
		}

		now := time.Now()
		cnt := 0
		for i := 0; i < n; i++ {
			student := utils.GenerateRandomStudent(cfg.Seed.EmailDomain, now, cfg.Billing.CycleMonths)

			// 依次尝试打乱后的座位，直到找到一个当前时段空闲的座位
			for _, seatNumber := range utils.ShuffleSeats(seatNumbers) {
				student.SeatNumber = seatNumber
				err = repo.CreateStudent(student)
				if !errors.Is(err, repository.ErrSeatOccupied) {
					break
				}
			}
			if len(seatNumbers) == 0 {
				err = repo.CreateStudent(student)
			}
			if err != nil {
				slog.Error("无法插入学生", slog.String("name", student.Name), slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入学生成功", slog.Int("count", cnt))
	case 3:
		if file == "" {
			slog.Error("请通过 -file 指定 CSV 文件")
			return
		}

		f, err := os.Open(file)
		if err != nil {
			slog.Error("无法打开 CSV 文件", slog.String("error", err.Error()))
			return
		}
		defer f.Close()

		students, rowErrors, err := seed.ParseStudentsCSV(f, cfg.Billing.CycleMonths)
		if err != nil {
			slog.Error("无法解析 CSV 文件", slog.String("error", err.Error()))
			return
		}
		for _, rowErr := range rowErrors {
			slog.Warn("跳过无效的行", slog.Int("line", rowErr.Line), slog.String("error", rowErr.Err.Error()))
		}

		created, err := seed.ImportStudents(repo, students)
		if err != nil {
			slog.Error("导入学生中断", slog.Int("count", created), slog.String("error", err.Error()))
			return
		}

		slog.Info("导入学生成功", slog.Int("count", created), slog.Int("skipped", len(students)-created+len(rowErrors)))
	case 4:
		if n <= 0 {
			slog.Error("请输入合法的账户数量")
			return
		}

		passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.Seed.Password), bcrypt.DefaultCost)
		if err != nil {
			slog.Error("无法生成密码哈希", slog.String("error", err.Error()))
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			name := utils.GenerateRandomName()
			admin := &domain.Admin{
				Email:        strings.ToLower(strings.ReplaceAll(name, " ", ".")) + utils.GenerateRandomID(0, 3) + "@" + cfg.Seed.EmailDomain,
				PasswordHash: string(passwordHash),
				FullName:     name,
				Role:         domain.RoleFrontDesk,
			}
			if err := repo.CreateAdmin(admin); err != nil {
				slog.Error("无法插入前台账户", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入前台账户成功", slog.Int("count", cnt))
	default:
		slog.Error("指定的操作非法")
	}
}
