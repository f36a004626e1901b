package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"studenttracker/pkg/common"
	"studenttracker/pkg/config"
	"studenttracker/pkg/console"
	"studenttracker/pkg/core"
	"studenttracker/pkg/report"
	"studenttracker/pkg/tracker"
)

func main() {
	configPath := flag.String("config", "", "Path to tracker.yaml")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	tr, err := tracker.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open tracker: %v", err)
	}
	defer tr.Close()

	fmt.Println("Student Performance Tracker")
	p := console.NewPrompter(os.Stdin, os.Stdout)
	if err := loginMenu(p, tr); err != nil && !errors.Is(err, io.EOF) {
		log.Printf("Input error: %v", err)
	}
	fmt.Println("Bye!")
}

func loginMenu(p *console.Prompter, tr *tracker.Tracker) error {
	for {
		p.Println("\n1. Login\n2. Create teacher account\n3. Exit")
		choice, err := p.ReadIntInRange("Choice: ", 1, 3)
		if err != nil {
			return err
		}

		switch choice {
		case 1:
			sess, err := login(p, tr)
			if err != nil {
				return err
			}
			if sess == nil {
				continue
			}
			if err := (&shell{p: p, tr: tr, sess: sess}).run(); err != nil {
				return err
			}
		case 2:
			if err := createTeacher(p, tr); err != nil {
				return err
			}
		case 3:
			return nil
		}
	}
}

// login returns a nil session when the credentials were rejected.
func login(p *console.Prompter, tr *tracker.Tracker) (*core.Session, error) {
	id, err := p.ReadLine("Teacher ID: ")
	if err != nil {
		return nil, err
	}
	pw, err := p.ReadLine("Password: ")
	if err != nil {
		return nil, err
	}

	sess, err := tr.Login(id, pw)
	var credErr *core.CredentialsError
	switch {
	case err == nil:
		p.Printf("Welcome, %s (%s).\n", sess.Teacher.Name, sess.Teacher.Subject)
		return sess, nil
	case errors.As(err, &credErr):
		if credErr.Remaining > 0 {
			p.Printf("Incorrect password. %d attempt(s) remaining.\n", credErr.Remaining)
		} else {
			p.Println("Incorrect password. Account is now locked.")
		}
	case errors.Is(err, core.ErrAccountLocked):
		p.Println("Account is locked. Contact an administrator.")
	case errors.Is(err, core.ErrNotFound):
		p.Println("No teacher with that ID.")
	default:
		p.Printf("Error: %v\n", err)
	}
	return nil, nil
}

func createTeacher(p *console.Prompter, tr *tracker.Tracker) error {
	var fields [4]string
	for i, prompt := range []string{"Teacher ID: ", "Name: ", "Password: ", "Subject: "} {
		v, err := p.ReadLine(prompt)
		if err != nil {
			return err
		}
		fields[i] = v
	}
	if err := tr.CreateTeacher(fields[0], fields[1], fields[2], fields[3]); err != nil {
		p.Printf("Error: %v\n", err)
		return nil
	}
	p.Println("Teacher account created.")
	return nil
}

// shell is the menu shown to a logged-in teacher.
type shell struct {
	p    *console.Prompter
	tr   *tracker.Tracker
	sess *core.Session
}

const mainMenu = `
 1. Add student            9. Subject report
 2. List students         10. Master report
 3. Delete student        11. Subject ranking
 4. Modify student name   12. Export report (.xlsx)
 5. Modify student SRN    13. Import roster (.xlsx)
 6. Log marks             14. Stats
 7. Modify mark           15. Security log
 8. Take attendance       16. Logout`

func (s *shell) run() error {
	for {
		s.p.Println(mainMenu)
		choice, err := s.p.ReadIntInRange("Choice: ", 1, 16)
		if err != nil {
			return err
		}

		switch choice {
		case 1:
			err = s.addStudent()
		case 2:
			s.listStudents()
		case 3:
			err = s.withSRN(func(srn string) error { return s.tr.DeleteStudent(srn) }, "Student deleted.")
		case 4:
			err = s.renameStudent()
		case 5:
			err = s.changeSRN()
		case 6:
			err = s.logMarks()
		case 7:
			err = s.modifyMark()
		case 8:
			err = s.takeAttendance()
		case 9:
			err = s.subjectReport()
		case 10:
			err = s.masterReport()
		case 11:
			err = s.ranking()
		case 12:
			err = s.export()
		case 13:
			err = s.importRoster()
		case 14:
			s.printStats()
		case 15:
			err = s.securityLog()
		case 16:
			return s.logout()
		}
		if err != nil {
			return err
		}
	}
}

func (s *shell) fail(err error) {
	s.p.Printf("Error: %v\n", err)
}

func (s *shell) withSRN(op func(srn string) error, ok string) error {
	srn, err := s.p.ReadLine("SRN: ")
	if err != nil {
		return err
	}
	if err := op(srn); err != nil {
		s.fail(err)
		return nil
	}
	s.p.Println(ok)
	return nil
}

func (s *shell) addStudent() error {
	srn, err := s.p.ReadLine("SRN: ")
	if err != nil {
		return err
	}
	name, err := s.p.ReadLine("Name: ")
	if err != nil {
		return err
	}
	if err := s.tr.AddStudent(srn, name); err != nil {
		s.fail(err)
		return nil
	}
	s.p.Println("Student added.")
	return nil
}

func (s *shell) listStudents() {
	if s.tr.Students.Len() == 0 {
		s.p.Println("No students.")
		return
	}
	s.tr.Students.Walk(func(st *core.Student) bool {
		s.p.Printf("  %-12s %s\n", st.SRN(), st.Name)
		return true
	})
}

func (s *shell) renameStudent() error {
	srn, err := s.p.ReadLine("SRN: ")
	if err != nil {
		return err
	}
	name, err := s.p.ReadLine("New name: ")
	if err != nil {
		return err
	}
	if err := s.tr.SetStudentName(srn, name); err != nil {
		s.fail(err)
		return nil
	}
	s.p.Println("Name updated.")
	return nil
}

func (s *shell) changeSRN() error {
	oldSRN, err := s.p.ReadLine("Current SRN: ")
	if err != nil {
		return err
	}
	newSRN, err := s.p.ReadLine("New SRN: ")
	if err != nil {
		return err
	}
	if err := s.tr.RenameStudent(oldSRN, newSRN); err != nil {
		s.fail(err)
		return nil
	}
	s.p.Println("SRN updated.")
	return nil
}

// readScoredType asks for one of the five scored record types.
func (s *shell) readScoredType() (common.RecordType, error) {
	for i, typ := range common.ScoredTypes {
		s.p.Printf("  %d. %s (max %d)\n", i+1, typ, typ.MaxValue())
	}
	n, err := s.p.ReadIntInRange("Type: ", 1, len(common.ScoredTypes))
	if err != nil {
		return 0, err
	}
	return common.ScoredTypes[n-1], nil
}

// readSubject defaults to the logged-in teacher's subject on empty input.
func (s *shell) readSubject() (string, error) {
	subject, err := s.p.ReadLine(fmt.Sprintf("Subject [%s]: ", s.sess.Teacher.Subject))
	if err != nil {
		return "", err
	}
	if subject == "" {
		subject = s.sess.Teacher.Subject
	}
	return subject, nil
}

func (s *shell) readValue(typ common.RecordType) (int, error) {
	return s.p.ReadIntInRange(fmt.Sprintf("Value (0-%d): ", typ.MaxValue()), 0, typ.MaxValue())
}

func (s *shell) logMarks() error {
	srn, err := s.p.ReadLine("SRN: ")
	if err != nil {
		return err
	}
	if _, err := s.tr.FindStudent(srn); err != nil {
		s.fail(err)
		return nil
	}
	subject, err := s.readSubject()
	if err != nil {
		return err
	}
	typ, err := s.readScoredType()
	if err != nil {
		return err
	}
	value, err := s.readValue(typ)
	if err != nil {
		return err
	}
	if err := s.tr.LogMark(srn, typ, value, subject); err != nil {
		s.fail(err)
		return nil
	}
	s.p.Println("Mark recorded.")
	return nil
}

func (s *shell) modifyMark() error {
	srn, err := s.p.ReadLine("SRN: ")
	if err != nil {
		return err
	}
	subject, err := s.readSubject()
	if err != nil {
		return err
	}
	typ, err := s.readScoredType()
	if err != nil {
		return err
	}
	value, err := s.readValue(typ)
	if err != nil {
		return err
	}
	if err := s.tr.ModifyMark(srn, typ, subject, value); err != nil {
		s.fail(err)
		return nil
	}
	s.p.Println("Mark updated.")
	return nil
}

func (s *shell) takeAttendance() error {
	if s.tr.Students.Len() == 0 {
		s.p.Println("No students.")
		return nil
	}
	date, err := s.p.ReadLine(fmt.Sprintf("Date [%s]: ", time.Now().Format("2006-01-02")))
	if err != nil {
		return err
	}
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	n, err := s.tr.TakeAttendance(date, func(st *core.Student) (bool, error) {
		return s.p.Confirm(fmt.Sprintf("  %s %s present? (y/n): ", st.SRN(), st.Name))
	})
	if err != nil {
		return err
	}
	s.p.Printf("Attendance recorded for %d student(s).\n", n)
	return nil
}

func formatScore(sc report.Score) string {
	if !sc.Available {
		return "N/A"
	}
	return fmt.Sprintf("%.2f / %.0f", sc.Value, sc.Max)
}

func (s *shell) subjectReport() error {
	srn, err := s.p.ReadLine("SRN: ")
	if err != nil {
		return err
	}
	subject, err := s.readSubject()
	if err != nil {
		return err
	}
	r, err := s.tr.SubjectReport(srn, subject)
	if err != nil {
		s.fail(err)
		return nil
	}

	s.p.Printf("\n%s - %s (%s)\n", r.SRN, r.Name, r.Subject)
	if len(r.Entries) == 0 {
		s.p.Println("  No records for this subject.")
	}
	for _, rec := range r.Entries {
		s.p.Printf("  %-16s %s\n", rec.Type, rec.Type.FormatValue(rec.Value))
	}
	s.p.Printf("  Total CIE:        %s\n", formatScore(r.TotalCIE))
	s.p.Printf("  Semester (/50):   %s\n", formatScore(r.ScaledSemester))
	s.p.Printf("  Final mark:       %s\n", formatScore(r.FinalMark))
	return nil
}

func (s *shell) masterReport() error {
	srn, err := s.p.ReadLine("SRN: ")
	if err != nil {
		return err
	}
	r, err := s.tr.MasterReport(srn)
	if err != nil {
		s.fail(err)
		return nil
	}

	s.p.Printf("\n%s - %s\n", r.SRN, r.Name)
	s.p.Printf("  Attendance: %d / %d (%.1f%%)\n", r.Attendance.Present, r.Attendance.Total, r.Attendance.Percent())
	for _, e := range r.Entries {
		s.p.Printf("  %-14s %-16s %-20s %s\n", e.Subject, e.Type, e.Description, e.Display)
	}
	return nil
}

func (s *shell) ranking() error {
	subject, err := s.readSubject()
	if err != nil {
		return err
	}
	standings := s.tr.Ranking(subject)
	if len(standings) == 0 {
		s.p.Println("No student has a complete mark for this subject.")
		return nil
	}
	for _, st := range standings {
		s.p.Printf("  %3d. %-12s %-20s %.2f\n", st.Rank, st.SRN, st.Name, st.FinalMark)
	}
	return nil
}

func (s *shell) export() error {
	srn, err := s.p.ReadLine("SRN: ")
	if err != nil {
		return err
	}
	line, err := s.p.ReadLine(fmt.Sprintf("Subjects, comma separated [%s]: ", s.sess.Teacher.Subject))
	if err != nil {
		return err
	}
	var subjects []string
	for _, sub := range strings.Split(line, ",") {
		if sub = strings.TrimSpace(sub); sub != "" {
			subjects = append(subjects, sub)
		}
	}
	if len(subjects) == 0 {
		subjects = []string{s.sess.Teacher.Subject}
	}

	path, err := s.tr.ExportStudent(srn, subjects...)
	if err != nil {
		s.fail(err)
		return nil
	}
	s.p.Printf("Report written to %s\n", path)
	return nil
}

func (s *shell) importRoster() error {
	path, err := s.p.ReadLine("Roster file (.xlsx): ")
	if err != nil {
		return err
	}
	n, err := s.tr.ImportRoster(path)
	if err != nil {
		s.fail(err)
		return nil
	}
	s.p.Printf("Imported %d student(s).\n", n)
	return nil
}

func (s *shell) printStats() {
	stats := s.tr.Stats()
	for _, k := range []string{"backend", "teachers", "students", "reads", "writes", "rw_ratio", "failed_logins", "lockouts", "saves", "alert_log_bytes"} {
		s.p.Printf("  %-14s %v\n", k, stats[k])
	}
}

func (s *shell) securityLog() error {
	alerts, err := s.tr.Alerts()
	if err != nil {
		s.fail(err)
	}
	if len(alerts) == 0 {
		s.p.Println("No lockouts recorded.")
		return nil
	}
	for _, a := range alerts {
		s.p.Printf("  %s  %-12s %-20s %d failed attempts\n", a.At.Format("2006-01-02 15:04:05"), a.TeacherID, a.Name, a.Attempts)
	}

	wipe, err := s.p.Confirm("Clear the security log? (y/n): ")
	if err != nil {
		return err
	}
	if !wipe {
		return nil
	}
	if err := s.tr.ClearAlerts(); err != nil {
		s.fail(err)
		return nil
	}
	s.p.Println("Security log cleared.")
	return nil
}

func (s *shell) logout() error {
	save, err := s.p.Confirm("Save changes before logging out? (y/n): ")
	if err != nil {
		return err
	}
	if !save {
		s.p.Println("Changes not saved.")
		return nil
	}
	if err := s.tr.Save(); err != nil {
		s.fail(err)
		return nil
	}
	s.p.Println("Data saved.")
	return nil
}
