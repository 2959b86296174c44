package dial

import (
	"sync"

	"github.com/gavet/crmdialer/internal/model"
)

// priorityQueue is the FIFO of priority tasks. It is shared by the loop and the operator.
type priorityQueue struct {
	mu    sync.Mutex
	tasks []model.Task
}

func (q *priorityQueue) push(tasks ...model.Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, tasks...)
}

func (q *priorityQueue) pop() (model.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return model.Task{}, false
	}
	t := q.tasks[0]
	q.tasks[0] = model.Task{}
	q.tasks = q.tasks[1:]
	return t, true
}

func (q *priorityQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
