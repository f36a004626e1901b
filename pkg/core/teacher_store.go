package core

// Teacher is a credentialed account. FailedAttempts counts consecutive wrong passwords.
type Teacher struct {
	id             string
	Name           string
	Password       string
	Subject        string
	FailedAttempts int
}

func (t *Teacher) ID() string { return t.id }

// Locked reports whether the account has hit the failed-attempt limit.
func (t *Teacher) Locked() bool {
	return t.FailedAttempts >= MaxFailedAttempts
}

type teacherNode struct {
	teacher     *Teacher
	left, right *teacherNode
}

// TeacherStore is an unbalanced binary search tree keyed by teacher id.
// Teachers cannot be deleted or renamed.
type TeacherStore struct {
	root  *teacherNode
	count int
}

func NewTeacherStore() *TeacherStore {
	return &TeacherStore{}
}

// Insert adds a teacher with a clean failed-attempt counter.
func (s *TeacherStore) Insert(id, name, password, subject string) (*Teacher, error) {
	t := &Teacher{id: id, Name: name, Password: password, Subject: subject}
	root, err := insertTeacher(s.root, t)
	if err != nil {
		return nil, opErr("teacher", "Insert", id, err)
	}
	s.root = root
	s.count++
	return t, nil
}

func insertTeacher(n *teacherNode, t *Teacher) (*teacherNode, error) {
	if n == nil {
		return &teacherNode{teacher: t}, nil
	}
	var err error
	switch {
	case t.id < n.teacher.id:
		n.left, err = insertTeacher(n.left, t)
	case t.id > n.teacher.id:
		n.right, err = insertTeacher(n.right, t)
	default:
		err = ErrDuplicateKey
	}
	return n, err
}

// Find returns the teacher with id, or nil.
func (s *TeacherStore) Find(id string) *Teacher {
	n := s.root
	for n != nil {
		switch {
		case id < n.teacher.id:
			n = n.left
		case id > n.teacher.id:
			n = n.right
		default:
			return n.teacher
		}
	}
	return nil
}

// Walk visits teachers in ascending id order until fn returns false.
func (s *TeacherStore) Walk(fn func(t *Teacher) bool) {
	walkTeachersInOrder(s.root, fn)
}

func walkTeachersInOrder(n *teacherNode, fn func(*Teacher) bool) bool {
	if n == nil {
		return true
	}
	return walkTeachersInOrder(n.left, fn) && fn(n.teacher) && walkTeachersInOrder(n.right, fn)
}

// WalkPreOrder visits teachers node-before-children.
func (s *TeacherStore) WalkPreOrder(fn func(t *Teacher) bool) {
	walkTeachersPreOrder(s.root, fn)
}

func walkTeachersPreOrder(n *teacherNode, fn func(*Teacher) bool) bool {
	if n == nil {
		return true
	}
	return fn(n.teacher) && walkTeachersPreOrder(n.left, fn) && walkTeachersPreOrder(n.right, fn)
}

func (s *TeacherStore) Len() int {
	return s.count
}

func (s *TeacherStore) Clear() {
	s.root = nil
	s.count = 0
}
