package vm

import (
	"fmt"

	"github.com/ESloman/cslo/pkg/bytecode"
	"github.com/ESloman/cslo/pkg/value"
)

// Interpret runs an already-compiled top-level function, the entry point
// both `slo run` and the REPL use. fn.SourceFile names the source for
// error messages ("" for REPL input).
func (v *VM) Interpret(fn *value.FunctionObj) (err error) {
	v.sourceFile = fn.SourceFile
	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(*RuntimeError); ok {
				err = re
				return
			}
			panic(r)
		}
	}()

	closure := v.col.NewClosure(fn)
	v.push(value.ObjVal(closure))
	v.call(closure, 0)
	v.run()
	return nil
}

// SetSource records the original text so runtime errors can quote the
// offending source line.
func (v *VM) SetSource(text string) { v.sourceText = text }

// run is the dispatch loop: decode one instruction, execute it, repeat
// until the outermost frame returns (spec.md §4.4).
func (v *VM) run() {
	for {
		op := bytecode.Op(v.readByte())
		switch op {
		case bytecode.OpConstant:
			v.push(v.readConstant())
		case bytecode.OpNil:
			v.push(value.NilVal)
		case bytecode.OpTrue:
			v.push(value.BoolVal(true))
		case bytecode.OpFalse:
			v.push(value.BoolVal(false))
		case bytecode.OpPop:
			v.pop()
		case bytecode.OpDup:
			v.push(v.peek(0))
		case bytecode.OpDup2:
			a, b := v.peek(1), v.peek(0)
			v.push(a)
			v.push(b)

		case bytecode.OpDefineGlobal:
			name := v.readString()
			v.globals[name.Chars] = v.pop()
		case bytecode.OpDefineFinalGlobal:
			name := v.readString()
			v.globals[name.Chars] = v.pop()
		case bytecode.OpGetGlobal:
			name := v.readString()
			val, ok := v.globals[name.Chars]
			if !ok {
				panic(v.newError("NameException", "undefined variable '"+name.Chars+"'"))
			}
			v.push(val)
		case bytecode.OpSetGlobal:
			name := v.readString()
			if _, ok := v.globals[name.Chars]; !ok {
				panic(v.newError("NameException", "undefined variable '"+name.Chars+"'"))
			}
			v.globals[name.Chars] = v.peek(0)

		case bytecode.OpGetLocal:
			slot := v.readU16()
			v.push(v.stack[v.currentFrame().base+int(slot)])
		case bytecode.OpSetLocal:
			slot := v.readU16()
			v.stack[v.currentFrame().base+int(slot)] = v.peek(0)

		case bytecode.OpGetUpvalue:
			slot := v.readByte()
			uv := v.currentFrame().closure.Upvalues[slot]
			if uv.IsOpen {
				v.push(v.stack[uv.Location])
			} else {
				v.push(uv.Closed)
			}
		case bytecode.OpSetUpvalue:
			slot := v.readByte()
			uv := v.currentFrame().closure.Upvalues[slot]
			if uv.IsOpen {
				v.stack[uv.Location] = v.peek(0)
			} else {
				uv.Closed = v.peek(0)
			}

		case bytecode.OpEqual:
			b, a := v.pop(), v.pop()
			v.push(value.BoolVal(value.Equal(a, b)))
		case bytecode.OpNotEqual:
			b, a := v.pop(), v.pop()
			v.push(value.BoolVal(!value.Equal(a, b)))
		case bytecode.OpGreater:
			b, a := v.pop(), v.pop()
			v.push(value.BoolVal(v.compare(">", a, b)))
		case bytecode.OpGreaterEqual:
			b, a := v.pop(), v.pop()
			v.push(value.BoolVal(v.compare(">=", a, b)))
		case bytecode.OpLess:
			b, a := v.pop(), v.pop()
			v.push(value.BoolVal(v.compare("<", a, b)))
		case bytecode.OpLessEqual:
			b, a := v.pop(), v.pop()
			v.push(value.BoolVal(v.compare("<=", a, b)))

		case bytecode.OpAdd:
			b, a := v.pop(), v.pop()
			v.push(v.binaryAdd(a, b))
		case bytecode.OpSubtract:
			b, a := v.pop(), v.pop()
			v.push(v.binarySubtract(a, b))
		case bytecode.OpMultiply:
			b, a := v.pop(), v.pop()
			v.push(v.binaryMultiply(a, b))
		case bytecode.OpDivide:
			b, a := v.pop(), v.pop()
			v.push(v.binaryDivide(a, b))
		case bytecode.OpModulo:
			b, a := v.pop(), v.pop()
			v.push(v.binaryModulo(a, b))
		case bytecode.OpPow:
			b, a := v.pop(), v.pop()
			v.push(v.binaryPow(a, b))
		case bytecode.OpNegate:
			v.push(v.negate(v.pop()))
		case bytecode.OpNot:
			v.push(value.BoolVal(v.pop().IsFalsey()))

		case bytecode.OpJump:
			offset := v.readU16()
			v.currentFrame().ip += int(offset)
		case bytecode.OpJumpIfFalse:
			offset := v.readU16()
			if v.peek(0).IsFalsey() {
				v.currentFrame().ip += int(offset)
			}
		case bytecode.OpJumpIfTrue:
			offset := v.readU16()
			if v.peek(0).IsTruthy() {
				v.currentFrame().ip += int(offset)
			}
		case bytecode.OpLoop:
			offset := v.readU16()
			v.currentFrame().ip -= int(offset)

		case bytecode.OpCall:
			argc := int(v.readByte())
			v.callValue(v.peek(argc), argc)
		case bytecode.OpInvoke:
			name := v.readString()
			argc := int(v.readByte())
			v.invoke(name.Chars, argc)
		case bytecode.OpSuperInvoke:
			name := v.readString()
			argc := int(v.readByte())
			super := v.pop().AsObj().(*value.ClassObj)
			v.invokeFromClass(super, name.Chars, argc)

		case bytecode.OpClosure:
			fn := v.readConstant().AsObj().(*value.FunctionObj)
			closure := v.col.NewClosure(fn)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := v.readByte()
				index := v.readU16()
				if isLocal != 0 {
					closure.Upvalues[i] = v.captureUpvalue(v.currentFrame().base + int(index))
				} else {
					closure.Upvalues[i] = v.currentFrame().closure.Upvalues[index]
				}
			}
			v.push(value.ObjVal(closure))
		case bytecode.OpCloseUpvalue:
			v.closeUpvalues(len(v.stack) - 1)
			v.pop()
		case bytecode.OpReturn:
			result := v.pop()
			frame := v.frames[len(v.frames)-1]
			v.closeUpvalues(frame.base)
			v.frames = v.frames[:len(v.frames)-1]
			if len(v.frames) == 0 {
				return
			}
			v.stack = v.stack[:frame.base]
			v.push(result)

		case bytecode.OpClass:
			name := v.readString()
			v.push(value.ObjVal(v.col.NewClass(name, nil)))
		case bytecode.OpMethod:
			name := v.readString()
			method := v.pop()
			class := v.peek(0).AsObj().(*value.ClassObj)
			class.Methods[name.Chars] = method
		case bytecode.OpInherit:
			superVal := v.peek(1)
			superClass, ok := superVal.AsObj().(*value.ClassObj)
			if !ok {
				panic(v.newError("RuntimeException", "superclass must be a class"))
			}
			sub := v.peek(0).AsObj().(*value.ClassObj)
			sub.Super = superClass
			for k, m := range superClass.Methods {
				sub.Methods[k] = m
			}
			v.pop() // subclass; the superclass stays as the "super" local
		case bytecode.OpGetSuper:
			name := v.readString()
			super := v.pop().AsObj().(*value.ClassObj)
			receiver := v.pop()
			bound, ok := v.bindMethod(super, receiver, name.Chars)
			if !ok {
				panic(v.newError("AttributeException", "undefined method '"+name.Chars+"'"))
			}
			v.push(bound)

		case bytecode.OpGetProperty:
			name := v.readString()
			v.getProperty(name.Chars)
		case bytecode.OpSetProperty:
			name := v.readString()
			val := v.pop()
			receiver := v.pop()
			inst, ok := receiver.AsObj().(*value.InstanceObj)
			if receiver.Type != value.Obj || !ok {
				panic(v.newError("RuntimeException", "only instances have settable properties"))
			}
			inst.Fields[name.Chars] = val
			v.push(val)

		case bytecode.OpList:
			count := int(v.readU16())
			items := make([]value.Value, count)
			copy(items, v.stack[len(v.stack)-count:])
			v.popN(count)
			v.push(value.ObjVal(v.col.NewList(items, v.listClass)))
		case bytecode.OpDict:
			count := int(v.readU16())
			dict := v.col.NewDict(v.dictClass)
			base := len(v.stack) - count*2
			for i := 0; i < count; i++ {
				key := v.stack[base+i*2]
				val := v.stack[base+i*2+1]
				dict.Table.Set(key, val)
			}
			v.popN(count * 2)
			v.push(value.ObjVal(dict))
		case bytecode.OpEnum:
			count := int(v.readByte())
			nameIdx := v.readU16()
			enumName := v.currentFrame().chunk.Constants[nameIdx].AsObj().(*value.StringObj)
			members := make(map[string]int, count)
			order := make([]string, count)
			for i := 0; i < count; i++ {
				memberIdx := v.readU16()
				memberName := v.currentFrame().chunk.Constants[memberIdx].AsObj().(*value.StringObj).Chars
				members[memberName] = i
				order[i] = memberName
			}
			v.push(value.ObjVal(v.col.NewEnum(enumName, order, members)))

		case bytecode.OpGetIndex:
			index := v.pop()
			container := v.pop()
			v.push(v.getIndex(container, index))
		case bytecode.OpSetIndex:
			val := v.pop()
			index := v.pop()
			container := v.pop()
			v.setIndex(container, index, val)
			v.push(val)
		case bytecode.OpSlice:
			end := v.pop()
			start := v.pop()
			container := v.pop()
			v.push(v.slice(container, start, end))
		case bytecode.OpLen:
			v.push(v.length(v.pop()))
		case bytecode.OpHas:
			needle := v.pop()
			container := v.pop()
			v.push(value.BoolVal(v.has(container, needle)))
		case bytecode.OpHasNot:
			needle := v.pop()
			container := v.pop()
			v.push(value.BoolVal(!v.has(container, needle)))

		case bytecode.OpImport:
			name := v.readString()
			v.doImport(name.Chars, name.Chars)
		case bytecode.OpImportAs:
			name := v.readString()
			alias := v.readString()
			v.doImport(name.Chars, alias.Chars)

		case bytecode.OpInterpolate:
			b, a := v.pop(), v.pop()
			v.push(value.ObjVal(v.col.InternString(value.Stringify(a) + value.Stringify(b))))

		case bytecode.OpAssert:
			cond := v.pop()
			if cond.IsFalsey() {
				panic(v.newError("AssertionException", "assertion failed"))
			}

		default:
			panic(v.newError("RuntimeException", fmt.Sprintf("unknown opcode %v", op)))
		}
	}
}

func (v *VM) getProperty(name string) {
	receiver := v.pop()
	if receiver.Type == value.Obj {
		if inst, ok := receiver.AsObj().(*value.InstanceObj); ok {
			if field, ok := inst.Fields[name]; ok {
				v.push(field)
				return
			}
			if bound, ok := v.bindMethod(inst.Class, receiver, name); ok {
				v.push(bound)
				return
			}
			panic(v.newError("AttributeException", "'"+inst.Class.Name.Chars+"' has no attribute '"+name+"'"))
		}
		if enum, ok := receiver.AsObj().(*value.EnumObj); ok {
			if ordinal, ok := enum.Members[name]; ok {
				v.push(value.NumberVal(float64(ordinal)))
				return
			}
			panic(v.newError("AttributeException", "'"+enum.Name.Chars+"' has no member '"+name+"'"))
		}
	}
	class := v.classFor(receiver)
	if class != nil {
		if bound, ok := v.bindMethod(class, receiver, name); ok {
			v.push(bound)
			return
		}
	}
	panic(v.newError("AttributeException", "'"+value.TypeName(receiver)+"' has no attribute '"+name+"'"))
}
