package vm

import (
	"fmt"

	"github.com/ESloman/cslo/pkg/bytecode"
	"github.com/ESloman/cslo/pkg/value"
)

// callValue dispatches CALL/INVOKE's callee through whichever of
// closure/native/class/bound-method it turns out to be (spec.md §4.4).
func (v *VM) callValue(callee value.Value, argc int) {
	if callee.Type != value.Obj {
		panic(v.newError("TypeException", "can only call functions and classes"))
	}
	switch callee := callee.AsObj().(type) {
	case *value.ClosureObj:
		v.call(callee, argc)
	case *value.NativeObj:
		v.callNative(callee, argc, 0)
	case *value.ClassObj:
		v.instantiate(callee, argc)
	case *value.BoundMethodObj:
		v.stack[len(v.stack)-argc-1] = callee.Receiver
		v.callMethodValue(callee.Method, argc)
	default:
		panic(v.newError("TypeException", "can only call functions and classes"))
	}
}

func (v *VM) callMethodValue(method value.Value, argc int) {
	switch m := method.AsObj().(type) {
	case *value.ClosureObj:
		v.call(m, argc)
	case *value.NativeObj:
		v.callNative(m, argc, 1)
	}
}

// call pushes a new frame over closure, binding the argc values already
// on the stack (plus the receiver slot at base) as its locals.
func (v *VM) call(closure *value.ClosureObj, argc int) {
	fn := closure.Function
	if argc != fn.Arity {
		panic(v.newError("TypeException", fmt.Sprintf("expected %d arguments but got %d", fn.Arity, argc)))
	}
	if len(v.frames) >= maxFrames {
		panic(v.newError("RuntimeException", "stack overflow"))
	}
	chunk := fn.Chunk.(*bytecode.Chunk)
	v.frames = append(v.frames, callFrame{
		closure: closure,
		chunk:   chunk,
		ip:      0,
		base:    len(v.stack) - argc - 1,
	})
}

// callNative invokes a host function, surfacing an ErrorVal return under
// its carried exception kind, defaulting to RuntimeException if the
// native didn't set one (spec.md §4.6). receiverOffset is 1 when the callee
// was bound to a receiver occupying the slot ahead of the arguments; that
// receiver is prepended to args as args[0] so the native can see it, but
// it is excluded from the declared arity check, which counts only the
// explicit call arguments.
func (v *VM) callNative(n *value.NativeObj, argc int, receiverOffset int) {
	if argc < n.ArityMin || (n.ArityMax >= 0 && argc > n.ArityMax) {
		panic(v.newError("TypeException", fmt.Sprintf("wrong number of arguments to %s()", n.Name)))
	}
	args := v.stack[len(v.stack)-argc-receiverOffset:]
	result := n.Fn(argc, args)
	v.popN(argc + 1) // arguments plus the callee (or receiver) slot
	if result.Type == value.Error {
		kind := "RuntimeException"
		msg := "native call failed"
		if eo, ok := result.AsObj().(*value.ErrorObj); ok {
			msg = eo.Message
			if eo.Kind != "" {
				kind = eo.Kind
			}
		}
		panic(v.newError(kind, msg))
	}
	v.push(result)
}

// instantiate allocates a new instance of class, then runs __init__ if
// present (spec.md §4.4): calling a class with no initializer with any
// arguments raises RuntimeException.
func (v *VM) instantiate(class *value.ClassObj, argc int) {
	inst := v.col.NewInstance(class)
	v.stack[len(v.stack)-argc-1] = value.ObjVal(inst)

	if init, ok := class.Methods[v.initString.Chars]; ok {
		v.callMethodValue(init, argc)
		return
	}
	if argc != 0 {
		panic(v.newError("RuntimeException", "class has no __init__ but was called with arguments"))
	}
}

// invoke resolves name on the receiver currently argc slots below the
// top of stack and calls it, short-circuiting the GET_PROPERTY + CALL
// pair clox needs two opcodes for (spec.md §4.4).
func (v *VM) invoke(name string, argc int) {
	receiver := v.peek(argc)

	if receiver.Type == value.Obj {
		if inst, ok := receiver.AsObj().(*value.InstanceObj); ok {
			if field, ok := inst.Fields[name]; ok {
				v.stack[len(v.stack)-argc-1] = field
				v.callMethodValue(field, argc)
				return
			}
			v.invokeFromClass(inst.Class, name, argc)
			return
		}
		if mod, ok := receiver.AsObj().(*value.ModuleObj); ok {
			export, ok := mod.Exports[name]
			if !ok {
				panic(v.newError("AttributeException", "module '"+mod.Name.Chars+"' has no export '"+name+"'"))
			}
			v.stack[len(v.stack)-argc-1] = export
			v.callValue(export, argc)
			return
		}
	}

	class := v.classFor(receiver)
	if class == nil {
		panic(v.newError("AttributeException", "'"+value.TypeName(receiver)+"' has no method '"+name+"'"))
	}
	v.invokeFromClass(class, name, argc)
}

// classFor returns the built-in class backing receiver's kind, or nil
// for values with no method table (numbers, bools, nil).
func (v *VM) classFor(receiver value.Value) *value.ClassObj {
	if receiver.Type != value.Obj {
		return nil
	}
	switch receiver.AsObj().(type) {
	case *value.ListObj:
		return v.listClass
	case *value.DictObj:
		return v.dictClass
	case *value.StringObj:
		return v.stringClass
	case *value.FileObj:
		return v.fileClass
	case *value.InstanceObj:
		return receiver.AsObj().(*value.InstanceObj).Class
	}
	return nil
}

func (v *VM) invokeFromClass(class *value.ClassObj, name string, argc int) {
	method, ok := class.Methods[name]
	if !ok {
		panic(v.newError("AttributeException", "undefined method '"+name+"'"))
	}
	v.callMethodValue(method, argc)
}

// bindMethod resolves name on class (or its native-property table) and
// returns either a BoundMethod or the property's computed value; the
// caller pushes it.
func (v *VM) bindMethod(class *value.ClassObj, receiver value.Value, name string) (value.Value, bool) {
	if prop, ok := class.NativeProps[name]; ok {
		return prop.Getter(receiver), true
	}
	if method, ok := class.Methods[name]; ok {
		return value.ObjVal(v.col.NewBoundMethod(receiver, method)), true
	}
	return value.NilVal, false
}

// captureUpvalue returns the open upvalue for the stack slot at
// absoluteIndex, reusing one already open for that slot, and threads the
// VM's open-upvalue list in descending-index order (spec.md §4.2).
func (v *VM) captureUpvalue(absoluteIndex int) *value.UpvalueObj {
	var prev *value.UpvalueObj
	cur := v.openUpvalues
	for cur != nil && cur.Location > absoluteIndex {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.Location == absoluteIndex {
		return cur
	}
	created := v.col.NewOpenUpvalue(absoluteIndex)
	created.Next = cur
	if prev == nil {
		v.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue pointing at or above
// lastIndex, copying the stack value into the upvalue itself.
func (v *VM) closeUpvalues(lastIndex int) {
	for v.openUpvalues != nil && v.openUpvalues.Location >= lastIndex {
		uv := v.openUpvalues
		uv.Closed = v.stack[uv.Location]
		uv.IsOpen = false
		v.openUpvalues = uv.Next
	}
}
