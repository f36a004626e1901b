package core

import "studenttracker/pkg/common"

// Student is a roster entry. The SRN is the store key and only changes through StudentStore.Rename.
type Student struct {
	srn     string
	Name    string
	History History
}

func (s *Student) SRN() string { return s.srn }

// AddRecord prepends a record to the student's history.
func (s *Student) AddRecord(typ common.RecordType, value int, subject, description string) {
	s.History.Add(common.PerformanceRecord{
		Type:        typ,
		Value:       value,
		Subject:     subject,
		Description: description,
	})
}

// ModifyRecord updates the first matching (type, subject) record in history order.
func (s *Student) ModifyRecord(typ common.RecordType, subject string, value int) bool {
	return s.History.Modify(typ, subject, value)
}

// MarkAttendance records a present/absent entry for date.
func MarkAttendance(s *Student, date string, present bool) {
	v := 0
	if present {
		v = 1
	}
	s.AddRecord(common.Attendance, v, common.AttendanceSubject, date)
}

type studentNode struct {
	student     *Student
	left, right *studentNode
}

// StudentStore is an unbalanced binary search tree keyed by SRN.
// Not safe for concurrent use.
type StudentStore struct {
	root  *studentNode
	count int
}

func NewStudentStore() *StudentStore {
	return &StudentStore{}
}

// Insert adds a student with an empty history.
func (s *StudentStore) Insert(srn, name string) (*Student, error) {
	st := &Student{srn: srn, Name: name}
	root, err := insertStudent(s.root, st)
	if err != nil {
		return nil, opErr("student", "Insert", srn, err)
	}
	s.root = root
	s.count++
	return st, nil
}

func insertStudent(n *studentNode, st *Student) (*studentNode, error) {
	if n == nil {
		return &studentNode{student: st}, nil
	}
	var err error
	switch {
	case st.srn < n.student.srn:
		n.left, err = insertStudent(n.left, st)
	case st.srn > n.student.srn:
		n.right, err = insertStudent(n.right, st)
	default:
		err = ErrDuplicateKey
	}
	return n, err
}

// Find returns the student with srn, or nil.
func (s *StudentStore) Find(srn string) *Student {
	n := s.root
	for n != nil {
		switch {
		case srn < n.student.srn:
			n = n.left
		case srn > n.student.srn:
			n = n.right
		default:
			return n.student
		}
	}
	return nil
}

// Delete removes the student with srn together with its history.
func (s *StudentStore) Delete(srn string) error {
	root, err := deleteStudent(s.root, srn)
	if err != nil {
		return opErr("student", "Delete", srn, err)
	}
	s.root = root
	s.count--
	return nil
}

func deleteStudent(n *studentNode, srn string) (*studentNode, error) {
	if n == nil {
		return nil, ErrNotFound
	}
	var err error
	switch {
	case srn < n.student.srn:
		n.left, err = deleteStudent(n.left, srn)
		return n, err
	case srn > n.student.srn:
		n.right, err = deleteStudent(n.right, srn)
		return n, err
	}

	if n.left == nil {
		return n.right, nil
	}
	if n.right == nil {
		return n.left, nil
	}

	// Two children: promote the in-order successor's student into this node,
	// then drop the successor's original node from the right subtree.
	succ := minStudent(n.right)
	n.student = succ.student
	n.right, err = deleteStudent(n.right, succ.student.srn)
	return n, err
}

func minStudent(n *studentNode) *studentNode {
	for n.left != nil {
		n = n.left
	}
	return n
}

// Rename moves a student to a new SRN, keeping its name and history.
// The rename is refused before anything is removed when newSRN is taken.
func (s *StudentStore) Rename(oldSRN, newSRN string) error {
	st := s.Find(oldSRN)
	if st == nil {
		return opErr("student", "Rename", oldSRN, ErrNotFound)
	}
	if oldSRN == newSRN {
		return nil
	}
	if s.Find(newSRN) != nil {
		return opErr("student", "Rename", newSRN, ErrDuplicateKey)
	}

	root, err := deleteStudent(s.root, oldSRN)
	if err != nil {
		return opErr("student", "Rename", oldSRN, err)
	}
	st.srn = newSRN
	root, err = insertStudent(root, st)
	s.root = root
	if err != nil {
		s.count--
		return opErr("student", "Rename", newSRN, err)
	}
	return nil
}

// SetName replaces the name of the student with srn.
func (s *StudentStore) SetName(srn, name string) error {
	st := s.Find(srn)
	if st == nil {
		return opErr("student", "SetName", srn, ErrNotFound)
	}
	st.Name = name
	return nil
}

// Walk visits students in ascending SRN order until fn returns false.
func (s *StudentStore) Walk(fn func(st *Student) bool) {
	walkStudentsInOrder(s.root, fn)
}

func walkStudentsInOrder(n *studentNode, fn func(*Student) bool) bool {
	if n == nil {
		return true
	}
	return walkStudentsInOrder(n.left, fn) && fn(n.student) && walkStudentsInOrder(n.right, fn)
}

// WalkPreOrder visits students node-before-children. Re-inserting in this order
// rebuilds the same tree shape.
func (s *StudentStore) WalkPreOrder(fn func(st *Student) bool) {
	walkStudentsPreOrder(s.root, fn)
}

func walkStudentsPreOrder(n *studentNode, fn func(*Student) bool) bool {
	if n == nil {
		return true
	}
	return fn(n.student) && walkStudentsPreOrder(n.left, fn) && walkStudentsPreOrder(n.right, fn)
}

// List returns all students in ascending SRN order.
func (s *StudentStore) List() []*Student {
	out := make([]*Student, 0, s.count)
	s.Walk(func(st *Student) bool {
		out = append(out, st)
		return true
	})
	return out
}

func (s *StudentStore) Len() int {
	return s.count
}

// Clear releases every node.
func (s *StudentStore) Clear() {
	s.root = nil
	s.count = 0
}
